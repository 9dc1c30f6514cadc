package clinicapi

import (
	"context"
	"net/url"

	"careline/internal/models"
)

const (
	opBookings      = "bookings"
	opCreateBooking = "create_booking"
	opUpdateBooking = "update_booking"
	opDeleteBooking = "delete_booking"
)

// CreateBookingRequest is the payload for POST /bookings. The backend keys
// bookings by doctor display name rather than id; that contract is
// preserved here (see DESIGN.md).
type CreateBookingRequest struct {
	UserID        string `json:"userId"`
	ServiceID     string `json:"serviceId"`
	DoctorName    string `json:"doctorName"`
	BookingDate   string `json:"bookingDate"` // YYYY-MM-DD, time-of-day stripped
	StartTime     string `json:"startTime"`   // HH:MM
	IsAnonymous   bool   `json:"isAnonymous"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
}

// BookingPatch carries the fields PUT /bookings/:id accepts.
type BookingPatch struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// Bookings lists all bookings (staff view).
func (c *Client) Bookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doGet(ctx, userID, "/bookings", opBookings, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// BookingsByUser lists the given patient's bookings.
func (c *Client) BookingsByUser(ctx context.Context, userID int64, patientID string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doGet(ctx, userID, "/bookings/user/"+url.PathEscape(patientID), opBookings, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// BookingsByDoctor lists bookings held by a doctor, keyed by display name.
func (c *Client) BookingsByDoctor(ctx context.Context, userID int64, doctorName string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.doGet(ctx, userID, "/bookings/doctor/"+url.PathEscape(doctorName), opBookings, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Booking fetches one booking.
func (c *Client) Booking(ctx context.Context, userID int64, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doGet(ctx, userID, "/bookings/"+url.PathEscape(id), opBookings, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateBooking submits a new booking.
func (c *Client) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doPost(ctx, userID, "/bookings", opCreateBooking, req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking applies a partial update.
func (c *Client) UpdateBooking(ctx context.Context, userID int64, id string, patch BookingPatch) (*models.Booking, error) {
	var booking models.Booking
	if err := c.doPut(ctx, userID, "/bookings/"+url.PathEscape(id), opUpdateBooking, patch, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteBooking cancels a booking.
func (c *Client) DeleteBooking(ctx context.Context, userID int64, id string) error {
	return c.doDelete(ctx, userID, "/bookings/"+url.PathEscape(id), opDeleteBooking)
}
