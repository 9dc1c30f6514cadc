package reminders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"careline/internal/models"
)

type fakeSessions struct {
	users map[int64]*models.User
}

func (f *fakeSessions) ActiveUsers() []int64 {
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeSessions) Current(userID int64) *models.User {
	return f.users[userID]
}

type fakeBookings struct {
	byPatient map[string][]models.Booking
}

func (f *fakeBookings) BookingsByUser(ctx context.Context, userID int64, patientID string) ([]models.Booking, error) {
	return f.byPatient[patientID], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) SendReminder(userID int64, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, booking.ID)
	return nil
}

func (r *recordingNotifier) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func bookingAt(id string, start time.Time, status models.BookingStatus) models.Booking {
	return models.Booking{
		ID:          id,
		BookingDate: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local),
		StartTime:   start.Format("15:04"),
		Status:      status,
	}
}

func newTestService(sessions SessionSource, bookings BookingSource, notifier Notifier, now time.Time) *Service {
	logger := zerolog.Nop()
	svc := NewService(Config{HoursBefore: 24}, sessions, bookings, notifier, &logger)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheckNow_SendsDueReminders(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	sessions := &fakeSessions{users: map[int64]*models.User{7: {ID: "u1"}}}
	bookings := &fakeBookings{byPatient: map[string][]models.Booking{
		"u1": {
			bookingAt("due", now.Add(5*time.Hour), models.StatusConfirmed),
			bookingAt("too-far", now.Add(48*time.Hour), models.StatusConfirmed),
			bookingAt("past", now.Add(-2*time.Hour), models.StatusConfirmed),
			bookingAt("cancelled", now.Add(5*time.Hour), models.StatusCancelled),
		},
	}}
	notifier := &recordingNotifier{}

	svc := newTestService(sessions, bookings, notifier, now)
	svc.CheckNow()

	assert.Equal(t, []string{"due"}, notifier.ids())
}

func TestCheckNow_DoesNotRepeatReminders(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	sessions := &fakeSessions{users: map[int64]*models.User{7: {ID: "u1"}}}
	bookings := &fakeBookings{byPatient: map[string][]models.Booking{
		"u1": {bookingAt("b1", now.Add(5*time.Hour), models.StatusConfirmed)},
	}}
	notifier := &recordingNotifier{}

	svc := newTestService(sessions, bookings, notifier, now)
	svc.CheckNow()
	svc.CheckNow()

	assert.Equal(t, []string{"b1"}, notifier.ids(), "second scan must not resend")
}

func TestCheckNow_SkipsLoggedOutUsers(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	sessions := &fakeSessions{users: map[int64]*models.User{}}
	bookings := &fakeBookings{byPatient: map[string][]models.Booking{
		"u1": {bookingAt("b1", now.Add(5*time.Hour), models.StatusConfirmed)},
	}}
	notifier := &recordingNotifier{}

	svc := newTestService(sessions, bookings, notifier, now)
	svc.CheckNow()

	assert.Empty(t, notifier.ids())
}

func TestDue_MalformedSlotIsSkipped(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	svc := newTestService(&fakeSessions{}, &fakeBookings{}, &recordingNotifier{}, now)

	bk := models.Booking{
		ID:          "bad",
		BookingDate: now,
		StartTime:   "nine thirty",
		Status:      models.StatusConfirmed,
	}
	assert.False(t, svc.due(&bk))
}

func TestStartStop(t *testing.T) {
	now := time.Now()
	sessions := &fakeSessions{users: map[int64]*models.User{}}
	svc := newTestService(sessions, &fakeBookings{}, &recordingNotifier{}, now)
	svc.config.CheckInterval = time.Hour

	svc.Start()
	svc.Start() // idempotent
	svc.Stop()
	svc.Stop() // idempotent
}
