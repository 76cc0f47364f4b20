package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a time-of-day offset.
const MinutesPerDay = 24 * 60

// ParseTimeOfDay converts an "HH:MM" literal into minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeOfDay, s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimeOfDay, s, err)
	}
	if m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q has minute %d", ErrInvalidTimeOfDay, s, m)
	}

	minutes := h*60 + m
	if err := checkTimeOfDay(minutes); err != nil {
		return 0, fmt.Errorf("%w (%q)", err, s)
	}
	return minutes, nil
}

// FormatTimeOfDay is the inverse of ParseTimeOfDay.
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func checkTimeOfDay(minutes int) error {
	if minutes < 0 || minutes >= MinutesPerDay {
		return fmt.Errorf("%w: %d minutes", ErrInvalidTimeOfDay, minutes)
	}
	return nil
}
