package model

import (
	"fmt"
	"time"
)

// Schedule is a recurring time window over a date range. It is the input to
// expansion and is never modified by it.
type Schedule struct {
	ID string

	// StartDate / EndDate bound the recurrence window. Only their calendar
	// dates (in the expansion location) are used.
	StartDate time.Time
	EndDate   time.Time

	// StartHour / EndHour are minutes since midnight. EndHour <= StartHour
	// means the window ends on the following day.
	StartHour int
	EndHour   int

	// RepeatFrequency mirrors the stored record. Only "" and "NONE" are
	// expandable; the weekday mask is the whole recurrence rule.
	RepeatFrequency string

	Weekdays     WeekdaySet
	DeletedDates []Date

	Color     string
	Notes     string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeRange is one concrete interval produced by expanding a Schedule.
// Start is always before End.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End].
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r TimeRange) String() string {
	return r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
}

// OverlapResult is the outcome of checking one candidate range against a
// base set of ranges.
type OverlapResult struct {
	Range TimeRange

	AtStart bool
	AtEnd   bool

	// StartHits / EndHits are the base ranges containing Range.Start and
	// Range.End respectively.
	StartHits []TimeRange
	EndHits   []TimeRange

	// Covered holds base ranges strictly inside Range. It is only filled
	// when the detector runs with intersection enabled.
	Covered []TimeRange
}

// Overlaps reports whether any base range touched the candidate.
func (o OverlapResult) Overlaps() bool {
	return o.AtStart || o.AtEnd || len(o.Covered) > 0
}

func (o OverlapResult) String() string {
	return fmt.Sprintf("%s start=%t end=%t covered=%d", o.Range, o.AtStart, o.AtEnd, len(o.Covered))
}
