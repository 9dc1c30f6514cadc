package booking

import (
	"fmt"
	"time"
)

// DefaultSlotInterval is the grid step used when config leaves it unset.
const DefaultSlotInterval = 30 * time.Minute

// GenerateTimeSlots walks a cursor from start to end in interval steps and
// returns each position as a zero-padded "HH:MM" label. The end boundary is
// inclusive, so equal start and end yield a single slot and a start after
// the end yields none. Malformed bounds or a non-positive interval yield an
// error rather than a partial grid.
func GenerateTimeSlots(start, end string, interval time.Duration) ([]string, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("slot interval must be positive, got %s", interval)
	}
	from, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}

	var slots []string
	for cursor := from; !cursor.After(to); cursor = cursor.Add(interval) {
		slots = append(slots, cursor.Format("15:04"))
	}
	return slots, nil
}

// parseClock anchors an "HH:MM" string on a fixed date so the cursor walk
// can use time arithmetic.
func parseClock(value string) (time.Time, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(2000, time.January, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}
