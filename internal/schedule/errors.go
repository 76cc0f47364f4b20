package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateRange is returned when a schedule ends before it starts.
	ErrInvalidDateRange = errors.New("schedule: end date is before start date")

	// ErrInvalidTimeOfDay is returned for an hour-of-day outside [00:00, 24:00).
	ErrInvalidTimeOfDay = errors.New("schedule: time of day out of range")

	// ErrRangeTooLarge is returned when the date range spans more days than
	// ExpandConfig.MaxDays.
	ErrRangeTooLarge = errors.New("schedule: date range too large")

	// ErrUnsupportedFrequency is returned for repeat frequencies other than
	// the weekly weekday mask.
	ErrUnsupportedFrequency = errors.New("schedule: unsupported repeat frequency")
)

// RangeTooLargeError carries the offending day count. It matches
// ErrRangeTooLarge under errors.Is.
type RangeTooLargeError struct {
	Days int
	Max  int
}

func (e *RangeTooLargeError) Error() string {
	return fmt.Sprintf("%v: %d days exceeds limit of %d", ErrRangeTooLarge, e.Days, e.Max)
}

func (e *RangeTooLargeError) Is(target error) bool {
	return target == ErrRangeTooLarge
}
