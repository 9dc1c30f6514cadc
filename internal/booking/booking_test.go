package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilterDoctorsByDate(t *testing.T) {
	doctors := []models.Doctor{
		{
			Name:      "Dr. Lan",
			DayOfWeek: []string{"Monday", "Wednesday"},
			StartDay:  day(2024, time.January, 1),
			EndDay:    day(2024, time.December, 31),
		},
		{
			Name:      "Dr. Minh",
			DayOfWeek: []string{"monday"}, // lower case in backend data
			StartDay:  day(2024, time.June, 1),
			EndDay:    day(2024, time.June, 30),
		},
		{
			Name:     "Dr. Hoa", // no weekday list: excluded
			StartDay: day(2024, time.January, 1),
			EndDay:   day(2024, time.December, 31),
		},
		{
			Name:      "Dr. Tam", // zero employment range: excluded
			DayOfWeek: []string{"Monday"},
		},
	}

	tests := []struct {
		name string
		date time.Time
		want []string
	}{
		{
			name: "monday inside both ranges",
			date: day(2024, time.June, 3),
			want: []string{"Dr. Lan", "Dr. Minh"},
		},
		{
			name: "monday outside the shorter range",
			date: day(2024, time.July, 1),
			want: []string{"Dr. Lan"},
		},
		{
			name: "weekday nobody works",
			date: day(2024, time.June, 7), // Friday
			want: nil,
		},
		{
			name: "range boundaries are inclusive",
			date: day(2024, time.June, 24), // last Monday of Dr. Minh's range window
			want: []string{"Dr. Lan", "Dr. Minh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDoctorsByDate(doctors, tt.date)
			assert.Equal(t, tt.want, DoctorNames(got))
		})
	}
}

func TestFilterDoctorsByDate_IgnoresTimeOfDay(t *testing.T) {
	doctors := []models.Doctor{{
		Name:      "Dr. Lan",
		DayOfWeek: []string{"Sunday"},
		StartDay:  day(2024, time.June, 2),
		EndDay:    day(2024, time.June, 2),
	}}

	late := time.Date(2024, time.June, 2, 23, 45, 0, 0, time.UTC)
	got := FilterDoctorsByDate(doctors, late)
	assert.Equal(t, []string{"Dr. Lan"}, DoctorNames(got))
}

func TestGenerateTimeSlots(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		interval time.Duration
		want     []string
	}{
		{
			name:     "regular morning grid",
			start:    "08:00",
			end:      "10:00",
			interval: 30 * time.Minute,
			want:     []string{"08:00", "08:30", "09:00", "09:30", "10:00"},
		},
		{
			name:     "equal bounds yield one slot",
			start:    "09:00",
			end:      "09:00",
			interval: 30 * time.Minute,
			want:     []string{"09:00"},
		},
		{
			name:     "start after end yields none",
			start:    "17:00",
			end:      "08:00",
			interval: 30 * time.Minute,
			want:     nil,
		},
		{
			name:     "hour steps keep zero padding",
			start:    "07:05",
			end:      "09:05",
			interval: time.Hour,
			want:     []string{"07:05", "08:05", "09:05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateTimeSlots(tt.start, tt.end, tt.interval)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateTimeSlots_Errors(t *testing.T) {
	_, err := GenerateTimeSlots("8 am", "10:00", 30*time.Minute)
	assert.Error(t, err)

	_, err = GenerateTimeSlots("08:00", "ten", 30*time.Minute)
	assert.Error(t, err)

	_, err = GenerateTimeSlots("08:00", "10:00", 0)
	assert.Error(t, err)
}

func TestDraft_ValidateReportsFirstGap(t *testing.T) {
	profile := &models.User{ID: "u1"}
	service := &models.Service{ID: "s1", Name: "HIV screening", Price: 250000}

	tests := []struct {
		name    string
		draft   Draft
		profile *models.User
		wantMsg string
	}{
		{
			name:    "empty draft wants a service",
			draft:   Draft{},
			profile: profile,
			wantMsg: "Please pick a service first.",
		},
		{
			name:    "missing date",
			draft:   Draft{Service: service},
			profile: profile,
			wantMsg: "Please pick an appointment date.",
		},
		{
			name:    "missing slot",
			draft:   Draft{Service: service, Date: day(2024, time.June, 3)},
			profile: profile,
			wantMsg: "Please pick a time slot.",
		},
		{
			name:    "missing doctor",
			draft:   Draft{Service: service, Date: day(2024, time.June, 3), StartTime: "09:00"},
			profile: profile,
			wantMsg: "Please pick a doctor.",
		},
		{
			name: "named booking needs contact details",
			draft: Draft{
				Service: service, Date: day(2024, time.June, 3),
				StartTime: "09:00", DoctorName: "Dr. Lan",
			},
			profile: profile,
			wantMsg: "Please tell us your full name.",
		},
		{
			name: "named booking needs a phone",
			draft: Draft{
				Service: service, Date: day(2024, time.June, 3),
				StartTime: "09:00", DoctorName: "Dr. Lan", CustomerName: "An",
			},
			profile: profile,
			wantMsg: "Please share a contact phone number.",
		},
		{
			name: "anonymous booking skips contact details but still needs auth",
			draft: Draft{
				Service: service, Date: day(2024, time.June, 3),
				StartTime: "09:00", DoctorName: "Dr. Lan", IsAnonymous: true,
			},
			profile: nil,
			wantMsg: "Please log in before confirming a booking.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate(tt.profile)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestDraft_Request(t *testing.T) {
	service := &models.Service{ID: "s1", Name: "HIV screening", Price: 250000}
	profile := &models.User{ID: "u1"}

	draft := Draft{
		Service:       service,
		Date:          time.Date(2024, time.June, 3, 14, 30, 0, 0, time.UTC),
		StartTime:     "09:00",
		DoctorName:    "Dr. Lan",
		CustomerName:  "  An Nguyen  ",
		CustomerPhone: "0900000000",
		Notes:         "first visit ",
	}

	req, err := draft.Request(profile)
	require.NoError(t, err)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "s1", req.ServiceID)
	assert.Equal(t, "2024-06-03", req.BookingDate, "time of day must be stripped")
	assert.Equal(t, "09:00", req.StartTime)
	assert.Equal(t, "Dr. Lan", req.DoctorName)
	assert.Equal(t, "An Nguyen", req.CustomerName)
	assert.Equal(t, "first visit", req.Notes)
	assert.Equal(t, "pending", req.Status)
}

func TestDraft_RequestAnonymousOmitsContact(t *testing.T) {
	draft := Draft{
		Service:       &models.Service{ID: "s1"},
		Date:          day(2024, time.June, 3),
		StartTime:     "09:00",
		DoctorName:    "Dr. Lan",
		IsAnonymous:   true,
		CustomerName:  "should not leak",
		CustomerPhone: "0900000000",
	}

	req, err := draft.Request(&models.User{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, req.IsAnonymous)
	assert.Empty(t, req.CustomerName)
	assert.Empty(t, req.CustomerPhone)
}
