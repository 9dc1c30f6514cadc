package models

import "fmt"

// BookingStatus is the closed set of appointment statuses the backend can
// report. Keep the switches below exhaustive: a new backend status must be
// added here, not absorbed by a default branch.
type BookingStatus string

const (
	StatusPending       BookingStatus = "pending"
	StatusConfirmed     BookingStatus = "confirmed"
	StatusCheckedIn     BookingStatus = "checked-in"
	StatusCompleted     BookingStatus = "completed"
	StatusCheckedOut    BookingStatus = "checked-out"
	StatusCancelled     BookingStatus = "cancelled"
	StatusReExamination BookingStatus = "re-examination"
	StatusReviewed      BookingStatus = "reviewed"
)

// legacyCancel is an alias some backend versions still emit.
const legacyCancel = "cancel"

// ParseBookingStatus normalizes a backend status string. Unknown values are
// returned as-is with ok=false so callers can decide whether to reject.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	if s == legacyCancel {
		return StatusCancelled, true
	}
	switch st := BookingStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCompleted,
		StatusCheckedOut, StatusCancelled, StatusReExamination, StatusReviewed:
		return st, true
	}
	return BookingStatus(s), false
}

// Label returns a human-readable label for chat messages.
func (s BookingStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCheckedIn:
		return "Checked in"
	case StatusCompleted:
		return "Completed"
	case StatusCheckedOut:
		return "Checked out"
	case StatusCancelled:
		return "Cancelled"
	case StatusReExamination:
		return "Re-examination"
	case StatusReviewed:
		return "Reviewed"
	}
	return fmt.Sprintf("Unknown (%s)", string(s))
}

// Emoji returns the marker shown next to a booking in list views.
func (s BookingStatus) Emoji() string {
	switch s {
	case StatusPending:
		return "⏳"
	case StatusConfirmed:
		return "✅"
	case StatusCheckedIn:
		return "🏥"
	case StatusCompleted:
		return "✔️"
	case StatusCheckedOut:
		return "🚪"
	case StatusCancelled:
		return "❌"
	case StatusReExamination:
		return "🔁"
	case StatusReviewed:
		return "⭐"
	}
	return "❓"
}

// IsActive reports whether the booking still occupies a slot.
func (s BookingStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusReExamination:
		return true
	case StatusCompleted, StatusCheckedOut, StatusCancelled, StatusReviewed:
		return false
	}
	return false
}
