package google

import (
	"strings"
	"testing"
	"time"

	"careline/internal/models"
)

func TestShouldMirror(t *testing.T) {
	active := []models.BookingStatus{
		models.StatusPending, models.StatusConfirmed,
		models.StatusCheckedIn, models.StatusReExamination,
	}
	for _, st := range active {
		if !shouldMirror(&models.Booking{Status: st}) {
			t.Errorf("Expected %s to be mirrored", st)
		}
	}

	done := []models.BookingStatus{
		models.StatusCancelled, models.StatusCompleted,
		models.StatusCheckedOut, models.StatusReviewed,
	}
	for _, st := range done {
		if shouldMirror(&models.Booking{Status: st}) {
			t.Errorf("Expected %s not to be mirrored", st)
		}
	}
}

func TestEventForBooking(t *testing.T) {
	booking := &models.Booking{
		ID:            "b1",
		BookingCode:   "BK-1",
		ServiceName:   "HIV screening",
		DoctorName:    "Dr. Lan",
		BookingDate:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		StartTime:     "09:30",
		Status:        models.StatusConfirmed,
		CustomerName:  "An Nguyen",
		CustomerPhone: "0900000000",
	}

	event, err := eventForBooking(booking, time.UTC)
	if err != nil {
		t.Fatalf("eventForBooking: %v", err)
	}

	if event.Summary != "HIV screening — Dr. Lan" {
		t.Errorf("Unexpected summary: %s", event.Summary)
	}
	if event.Start.DateTime != "2024-06-03T09:30:00Z" {
		t.Errorf("Unexpected start: %s", event.Start.DateTime)
	}
	if event.End.DateTime != "2024-06-03T10:00:00Z" {
		t.Errorf("Unexpected end: %s", event.End.DateTime)
	}
	if !strings.Contains(event.Description, "Patient: An Nguyen") {
		t.Errorf("Expected patient name in description: %s", event.Description)
	}
	if !strings.Contains(event.Description, "Phone: 0900000000") {
		t.Errorf("Expected phone in description: %s", event.Description)
	}
}

func TestEventForBooking_AnonymousHidesContact(t *testing.T) {
	booking := &models.Booking{
		ID:            "b2",
		BookingCode:   "BK-2",
		ServiceName:   "Counselling",
		DoctorName:    "Dr. Minh",
		BookingDate:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		StartTime:     "14:00",
		Status:        models.StatusConfirmed,
		IsAnonymous:   true,
		CustomerName:  "should not leak",
		CustomerPhone: "0900000000",
	}

	event, err := eventForBooking(booking, time.UTC)
	if err != nil {
		t.Fatalf("eventForBooking: %v", err)
	}

	if !strings.Contains(event.Description, "Anonymous booking") {
		t.Errorf("Expected anonymous marker: %s", event.Description)
	}
	if strings.Contains(event.Description, "should not leak") || strings.Contains(event.Description, "0900000000") {
		t.Errorf("Anonymous booking leaked contact details: %s", event.Description)
	}
}

func TestEventForBooking_BadSlot(t *testing.T) {
	booking := &models.Booking{
		BookingDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		StartTime:   "half past nine",
		Status:      models.StatusConfirmed,
	}
	if _, err := eventForBooking(booking, time.UTC); err == nil {
		t.Error("Expected error for malformed slot time")
	}
}

func TestEventCacheOperations(t *testing.T) {
	s := &CalendarService{eventCache: make(map[string]string)}

	s.setCachedEvent("b1", "ev1")
	id, ok := s.cachedEvent("b1")
	if !ok || id != "ev1" {
		t.Errorf("Expected ev1, got %s (ok=%v)", id, ok)
	}

	s.deleteCachedEvent("b1")
	if _, ok := s.cachedEvent("b1"); ok {
		t.Error("Expected cache entry to be deleted")
	}

	s.setCachedEvent("b2", "ev2")
	s.ClearCache()
	if _, ok := s.cachedEvent("b2"); ok {
		t.Error("Expected cache to be cleared")
	}
}
