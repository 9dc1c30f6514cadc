// Package reminders nudges patients ahead of their upcoming appointments.
// The backend has no push channel, so the bot polls each active session's
// bookings and messages the patient when an appointment enters the
// reminder window.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"careline/internal/metrics"
	"careline/internal/models"
)

// Config tunes the polling loop.
type Config struct {
	// CheckInterval is how often upcoming bookings are scanned.
	CheckInterval time.Duration
	// HoursBefore is how far ahead of the appointment the reminder fires.
	HoursBefore int
	// MaxConcurrent limits parallel notification sends.
	MaxConcurrent int
}

func DefaultConfig() Config {
	return Config{
		CheckInterval: 15 * time.Minute,
		HoursBefore:   24,
		MaxConcurrent: 10,
	}
}

// SessionSource exposes which Telegram users currently hold a session.
type SessionSource interface {
	ActiveUsers() []int64
	Current(userID int64) *models.User
}

// BookingSource fetches a patient's bookings.
type BookingSource interface {
	BookingsByUser(ctx context.Context, userID int64, patientID string) ([]models.Booking, error)
}

// Notifier delivers a reminder to the user.
type Notifier interface {
	SendReminder(userID int64, booking *models.Booking) error
}

// Service runs the reminder loop.
type Service struct {
	config   Config
	sessions SessionSource
	bookings BookingSource
	notifier Notifier
	logger   *zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	sent    map[string]struct{} // booking ids already reminded
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewService(config Config, sessions SessionSource, bookings BookingSource, notifier Notifier, logger *zerolog.Logger) *Service {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 15 * time.Minute
	}
	if config.HoursBefore <= 0 {
		config.HoursBefore = 24
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Service{
		config:   config,
		sessions: sessions,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sent:     make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the check loop.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Int("hours_before", s.config.HoursBefore).
		Msg("reminder service started")
}

// Stop ends the loop and waits for in-flight sends.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("reminder service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	s.CheckNow()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.CheckNow()
		}
	}
}

// CheckNow scans every active session once.
func (s *Service) CheckNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup

	for _, userID := range s.sessions.ActiveUsers() {
		profile := s.sessions.Current(userID)
		if profile == nil {
			continue
		}
		bookings, err := s.bookings.BookingsByUser(ctx, userID, profile.ID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("reminder scan failed")
			continue
		}

		for i := range bookings {
			bk := &bookings[i]
			if !s.due(bk) {
				continue
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(userID int64, bk *models.Booking) {
				defer wg.Done()
				defer func() { <-sem }()

				if err := s.notifier.SendReminder(userID, bk); err != nil {
					metrics.IncReminderSent("failed")
					s.logger.Error().Err(err).Str("booking_id", bk.ID).Msg("reminder send failed")
					return
				}
				metrics.IncReminderSent("sent")
				s.markSent(bk.ID)
			}(userID, bk)
		}
	}

	wg.Wait()
}

// due reports whether a booking has entered the reminder window and still
// deserves one: active status, starts in the future, within HoursBefore,
// not already reminded.
func (s *Service) due(bk *models.Booking) bool {
	if !bk.Status.IsActive() {
		return false
	}
	if s.wasSent(bk.ID) {
		return false
	}
	start, err := appointmentStart(bk)
	if err != nil {
		return false
	}
	now := s.now()
	if !start.After(now) {
		return false
	}
	return start.Sub(now) <= time.Duration(s.config.HoursBefore)*time.Hour
}

func appointmentStart(bk *models.Booking) (time.Time, error) {
	clock, err := time.Parse("15:04", bk.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot time %q: %w", bk.StartTime, err)
	}
	d := bk.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

func (s *Service) wasSent(bookingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sent[bookingID]
	return ok
}

func (s *Service) markSent(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[bookingID] = struct{}{}
}
