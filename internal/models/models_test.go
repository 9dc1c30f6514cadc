package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected BookingStatus
		ok       bool
	}{
		{"pending", StatusPending, true},
		{"confirmed", StatusConfirmed, true},
		{"checked-in", StatusCheckedIn, true},
		{"completed", StatusCompleted, true},
		{"checked-out", StatusCheckedOut, true},
		{"cancelled", StatusCancelled, true},
		{"cancel", StatusCancelled, true}, // legacy alias
		{"re-examination", StatusReExamination, true},
		{"reviewed", StatusReviewed, true},
		{"banana", BookingStatus("banana"), false},
		{"", BookingStatus(""), false},
	}

	for _, tt := range tests {
		got, ok := ParseBookingStatus(tt.input)
		assert.Equal(t, tt.expected, got, "input: %s", tt.input)
		assert.Equal(t, tt.ok, ok, "input: %s", tt.input)
	}
}

func TestBookingStatus_Label(t *testing.T) {
	known := []BookingStatus{
		StatusPending, StatusConfirmed, StatusCheckedIn, StatusCompleted,
		StatusCheckedOut, StatusCancelled, StatusReExamination, StatusReviewed,
	}
	for _, s := range known {
		assert.NotContains(t, s.Label(), "Unknown", "status: %s", s)
		assert.NotEqual(t, "❓", s.Emoji(), "status: %s", s)
	}

	assert.Contains(t, BookingStatus("weird").Label(), "weird")
	assert.Equal(t, "❓", BookingStatus("weird").Emoji())
}

func TestBookingStatus_IsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.True(t, StatusReExamination.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, BookingStatus("weird").IsActive())
}

func TestDoctor_WorksOn(t *testing.T) {
	d := &Doctor{DayOfWeek: []string{"Monday", "Wednesday"}}

	assert.True(t, d.WorksOn("Monday"))
	assert.True(t, d.WorksOn("monday")) // case-insensitive
	assert.False(t, d.WorksOn("Thursday"))
	assert.False(t, (&Doctor{}).WorksOn("Monday"))
}
