package models

import (
	"strings"
	"time"
)

// User is the patient profile as the backend (or a decoded session token)
// describes it. Two derivations exist — token claims and GET /users/:id —
// and both must produce this shape.
type User struct {
	ID         string    `json:"id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Category groups services (testing, treatment, counselling, ...).
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Service is a bookable clinic service.
type Service struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"categoryId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Doctor is an availability descriptor: a weekday set plus an employment
// date range and a daily working-hour window.
type Doctor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DayOfWeek      []string  `json:"dayOfWeek"` // English weekday names
	StartDay       time.Time `json:"startDay"`
	EndDay         time.Time `json:"endDay"`
	StartTimeInDay string    `json:"startTimeInDay"` // "HH:MM"
	EndTimeInDay   string    `json:"endTimeInDay"`   // "HH:MM"
}

// WorksOn reports membership of an English weekday name in the doctor's
// weekday set, case-insensitive.
func (d *Doctor) WorksOn(weekday string) bool {
	for _, day := range d.DayOfWeek {
		if strings.EqualFold(day, weekday) {
			return true
		}
	}
	return false
}

// Booking is an appointment record. The backend keys bookings by doctor
// display name, not id; see DESIGN.md for why that is preserved.
type Booking struct {
	ID            string        `json:"id"`
	BookingCode   string        `json:"bookingCode"`
	UserID        string        `json:"userId,omitempty"`
	ServiceID     string        `json:"serviceId"`
	ServiceName   string        `json:"serviceName,omitempty"`
	BookingDate   time.Time     `json:"bookingDate"`
	StartTime     string        `json:"startTime"` // "HH:MM"
	DoctorName    string        `json:"doctorName"`
	Status        BookingStatus `json:"status"`
	IsAnonymous   bool          `json:"isAnonymous"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Payment is the record returned by the checkout-link endpoint. It is
// observed-only after creation; settlement happens server-side.
type Payment struct {
	PaymentID   string  `json:"paymentID"`
	OrderCode   string  `json:"orderCode"`
	Amount      float64 `json:"amount"`
	CheckoutURL string  `json:"checkoutUrl"`
	QRCode      string  `json:"qrCode,omitempty"`
	Status      string  `json:"status"`
}

// Notification is a per-user backend notification.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// TestResult is a medical result entry visible to the patient.
type TestResult struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	BookingID   string    `json:"bookingId,omitempty"`
	ServiceName string    `json:"serviceName"`
	ResultDate  time.Time `json:"resultDate"`
	Summary     string    `json:"summary"`
	DoctorName  string    `json:"doctorName,omitempty"`
}
