// Package google mirrors confirmed bookings into a Google Calendar so
// clinic coordinators see the bot's appointments next to everything else.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"careline/internal/models"
)

const defaultSlotLength = 30 * time.Minute

// CalendarService pushes booking mirrors into one calendar. Event ids are
// derived from booking ids so updates and removals are idempotent.
type CalendarService struct {
	service    *calendar.Service
	calendarID string
	timezone   *time.Location
	logger     *zerolog.Logger

	mu         sync.Mutex
	eventCache map[string]string // booking id -> calendar event id
}

// NewCalendarService authenticates with a service-account key file.
func NewCalendarService(ctx context.Context, credentialsPath, calendarID, timezone string, logger *zerolog.Logger) (*CalendarService, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", timezone, err)
	}

	return &CalendarService{
		service:    svc,
		calendarID: calendarID,
		timezone:   loc,
		logger:     logger,
		eventCache: make(map[string]string),
	}, nil
}

// shouldMirror reports whether a booking belongs on the calendar. Only
// statuses that still occupy a slot are mirrored.
func shouldMirror(booking *models.Booking) bool {
	return booking.Status.IsActive()
}

// eventForBooking builds the calendar payload. Anonymous bookings show only
// the booking code; named ones include the patient's contact details.
func eventForBooking(booking *models.Booking, loc *time.Location) (*calendar.Event, error) {
	start, err := slotStart(booking, loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(defaultSlotLength)

	summary := fmt.Sprintf("%s — %s", booking.ServiceName, booking.DoctorName)
	var details []string
	details = append(details, "Booking "+booking.BookingCode)
	details = append(details, "Status: "+booking.Status.Label())
	if booking.IsAnonymous {
		details = append(details, "Anonymous booking")
	} else {
		if booking.CustomerName != "" {
			details = append(details, "Patient: "+booking.CustomerName)
		}
		if booking.CustomerPhone != "" {
			details = append(details, "Phone: "+booking.CustomerPhone)
		}
	}
	if booking.Notes != "" {
		details = append(details, "Notes: "+booking.Notes)
	}

	return &calendar.Event{
		Summary:     summary,
		Description: strings.Join(details, "\n"),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()},
	}, nil
}

// slotStart combines the booking's date with its HH:MM slot label.
func slotStart(booking *models.Booking, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", booking.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot time %q: %w", booking.StartTime, err)
	}
	d := booking.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// MirrorBooking creates or updates the calendar event for a booking.
// Bookings that left the active set are removed instead.
func (s *CalendarService) MirrorBooking(ctx context.Context, booking *models.Booking) error {
	if !shouldMirror(booking) {
		return s.RemoveBooking(ctx, booking.ID)
	}

	event, err := eventForBooking(booking, s.timezone)
	if err != nil {
		return err
	}

	if eventID, ok := s.cachedEvent(booking.ID); ok {
		_, err := s.service.Events.Update(s.calendarID, eventID, event).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		s.logger.Debug().Str("booking_id", booking.ID).Msg("calendar event updated")
		return nil
	}

	created, err := s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	s.setCachedEvent(booking.ID, created.Id)
	s.logger.Debug().Str("booking_id", booking.ID).Str("event_id", created.Id).Msg("calendar event created")
	return nil
}

// RemoveBooking deletes the mirror event if one exists.
func (s *CalendarService) RemoveBooking(ctx context.Context, bookingID string) error {
	eventID, ok := s.cachedEvent(bookingID)
	if !ok {
		return nil
	}
	if err := s.service.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.deleteCachedEvent(bookingID)
	return nil
}

func (s *CalendarService) cachedEvent(bookingID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.eventCache[bookingID]
	return id, ok
}

func (s *CalendarService) setCachedEvent(bookingID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventCache[bookingID] = eventID
}

func (s *CalendarService) deleteCachedEvent(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.eventCache, bookingID)
}

// ClearCache drops the booking-to-event mapping, forcing fresh inserts.
func (s *CalendarService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventCache = make(map[string]string)
}
