package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"schedcheck/internal/model"
)

const (
	// DefaultMaxDays caps a schedule at roughly ten years of calendar days.
	DefaultMaxDays = 3660
)

// ExpandConfig controls how a schedule is materialized.
type ExpandConfig struct {
	// Location is the calendar in which dates, weekdays and hours are
	// evaluated. If nil, time.UTC is used.
	Location *time.Location

	// MaxDays is the largest inclusive day span accepted. If zero,
	// DefaultMaxDays is used.
	MaxDays int
}

func (cfg ExpandConfig) normalized() ExpandConfig {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	return cfg
}

// rruleWeekdays maps ISO weekdays onto rrule's constants.
var rruleWeekdays = map[model.Weekday]rrule.Weekday{
	model.Monday:    rrule.MO,
	model.Tuesday:   rrule.TU,
	model.Wednesday: rrule.WE,
	model.Thursday:  rrule.TH,
	model.Friday:    rrule.FR,
	model.Saturday:  rrule.SA,
	model.Sunday:    rrule.SU,
}

// Expand turns a schedule into its concrete time ranges, ordered by start.
//
// Every calendar date from StartDate's date to EndDate's date (inclusive,
// both taken in cfg.Location) whose weekday is active and which is not in
// DeletedDates yields one range [date at StartHour, date at EndHour]. When
// EndHour <= StartHour the range ends on the following day.
//
// A schedule that matches no date yields an empty, non-nil slice.
func Expand(s model.Schedule, cfg ExpandConfig) ([]model.TimeRange, error) {
	cfg = cfg.normalized()
	out := make([]model.TimeRange, 0)

	if err := checkTimeOfDay(s.StartHour); err != nil {
		return nil, fmt.Errorf("schedule %s: start hour: %w", s.ID, err)
	}
	if err := checkTimeOfDay(s.EndHour); err != nil {
		return nil, fmt.Errorf("schedule %s: end hour: %w", s.ID, err)
	}
	if f := strings.ToUpper(s.RepeatFrequency); f != "" && f != "NONE" {
		return nil, fmt.Errorf("schedule %s: %w: %s", s.ID, ErrUnsupportedFrequency, s.RepeatFrequency)
	}
	if s.EndDate.Before(s.StartDate) {
		return nil, fmt.Errorf("schedule %s: %w", s.ID, ErrInvalidDateRange)
	}

	first := model.DateOf(s.StartDate.In(cfg.Location))
	last := model.DateOf(s.EndDate.In(cfg.Location))
	if days := first.DaysUntil(last) + 1; days > cfg.MaxDays {
		return nil, fmt.Errorf("schedule %s: %w", s.ID, &RangeTooLargeError{Days: days, Max: cfg.MaxDays})
	}

	// rrule falls back to DTSTART's weekday when BYDAY is empty.
	if s.Weekdays.Empty() {
		return out, nil
	}

	byday := make([]rrule.Weekday, 0, 7)
	for _, wd := range s.Weekdays.Days() {
		byday = append(byday, rruleWeekdays[wd])
	}

	// rrule only picks the dates. It runs on UTC midnights so a DTSTART
	// falling into a DST gap cannot shift the time of later occurrences.
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   first.At(0, time.UTC),
		Until:     last.At(0, time.UTC),
		Byweekday: byday,
		Wkst:      rrule.MO,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %s: build rrule: %w", s.ID, err)
	}

	deleted := make(map[model.Date]bool, len(s.DeletedDates))
	for _, d := range s.DeletedDates {
		deleted[d] = true
	}

	for _, midnight := range r.All() {
		day := model.DateOf(midnight)
		if deleted[day] {
			continue
		}
		start := day.At(s.StartHour, cfg.Location)
		end := day.At(s.EndHour, cfg.Location)
		if s.EndHour <= s.StartHour {
			end = day.AddDays(1).At(s.EndHour, cfg.Location)
		}
		// A DST gap can push a short window's start past its end.
		if !end.After(start) {
			continue
		}
		out = append(out, model.TimeRange{Start: start, End: end})
	}

	return out, nil
}
