// Package booking implements the appointment wizard: which doctors work on
// a chosen date, which time slots a day offers, and turning a finished
// draft into an API request.
package booking

import (
	"strings"
	"time"

	"careline/internal/models"
)

// FilterDoctorsByDate returns the doctors available on the given calendar
// date. A doctor qualifies when the date's weekday appears in their working
// days and the date falls inside their [StartDay, EndDay] employment range,
// compared at day precision. Doctors with an empty weekday list or a zero
// range boundary are excluded rather than guessed at.
func FilterDoctorsByDate(doctors []models.Doctor, date time.Time) []models.Doctor {
	day := truncateToDay(date)
	weekday := date.Weekday().String()

	var available []models.Doctor
	for _, doctor := range doctors {
		if len(doctor.DayOfWeek) == 0 || doctor.StartDay.IsZero() || doctor.EndDay.IsZero() {
			continue
		}
		if !doctor.WorksOn(weekday) {
			continue
		}
		start := truncateToDay(doctor.StartDay)
		end := truncateToDay(doctor.EndDay)
		if day.Before(start) || day.After(end) {
			continue
		}
		available = append(available, doctor)
	}
	return available
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DoctorNames projects a doctor list to display names, the key the booking
// backend uses.
func DoctorNames(doctors []models.Doctor) []string {
	names := make([]string, 0, len(doctors))
	for _, doctor := range doctors {
		name := strings.TrimSpace(doctor.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
