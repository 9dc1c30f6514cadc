package booking

import (
	"strings"
	"time"

	"careline/internal/clinicapi"
	"careline/internal/models"
)

// Draft accumulates the wizard's answers. Zero values mean "not chosen yet".
type Draft struct {
	Service       *models.Service
	Date          time.Time
	StartTime     string // HH:MM slot label
	DoctorName    string
	IsAnonymous   bool
	CustomerName  string
	CustomerPhone string
	Notes         string
}

// ValidationError reports the first unmet precondition as a message the bot
// can show directly.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the draft in the order the wizard collects its answers
// and reports the earliest gap. A logged-in profile is the final gate: an
// anonymous booking hides the patient's identity from clinic staff but the
// request itself is still authenticated.
func (d *Draft) Validate(profile *models.User) error {
	switch {
	case d.Service == nil:
		return &ValidationError{Message: "Please pick a service first."}
	case d.Date.IsZero():
		return &ValidationError{Message: "Please pick an appointment date."}
	case d.StartTime == "":
		return &ValidationError{Message: "Please pick a time slot."}
	case d.DoctorName == "":
		return &ValidationError{Message: "Please pick a doctor."}
	}
	if !d.IsAnonymous {
		if strings.TrimSpace(d.CustomerName) == "" {
			return &ValidationError{Message: "Please tell us your full name."}
		}
		if strings.TrimSpace(d.CustomerPhone) == "" {
			return &ValidationError{Message: "Please share a contact phone number."}
		}
	}
	if profile == nil {
		return &ValidationError{Message: "Please log in before confirming a booking."}
	}
	return nil
}

// Request assembles the API payload for a validated draft. New bookings
// always enter the pending state; staff move them onward in the CRM.
func (d *Draft) Request(profile *models.User) (clinicapi.CreateBookingRequest, error) {
	if err := d.Validate(profile); err != nil {
		return clinicapi.CreateBookingRequest{}, err
	}
	req := clinicapi.CreateBookingRequest{
		UserID:      profile.ID,
		ServiceID:   d.Service.ID,
		DoctorName:  d.DoctorName,
		BookingDate: d.Date.Format("2006-01-02"),
		StartTime:   d.StartTime,
		IsAnonymous: d.IsAnonymous,
		Notes:       strings.TrimSpace(d.Notes),
		Status:      string(models.StatusPending),
	}
	if !d.IsAnonymous {
		req.CustomerName = strings.TrimSpace(d.CustomerName)
		req.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	}
	return req, nil
}
