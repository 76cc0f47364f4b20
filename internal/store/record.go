package store

import (
	"fmt"
	"strings"
	"time"

	"schedcheck/internal/model"
	"schedcheck/internal/schedule"
)

// Record is a stored schedule as written by the booking frontend.
type Record struct {
	ID              string   `yaml:"id"`
	StartDate       string   `yaml:"startDate"`
	EndDate         string   `yaml:"endDate"`
	StartHour       string   `yaml:"startHour"`
	EndHour         string   `yaml:"endHour"`
	RepeatFrequency string   `yaml:"repeatFrequency"`
	Monday          bool     `yaml:"monday"`
	Tuesday         bool     `yaml:"tuesday"`
	Wednesday       bool     `yaml:"wednesday"`
	Thursday        bool     `yaml:"thursday"`
	Friday          bool     `yaml:"friday"`
	Saturday        bool     `yaml:"saturday"`
	Sunday          bool     `yaml:"sunday"`
	Notes           string   `yaml:"notes"`
	Color           string   `yaml:"color"`
	DeletedDates    []string `yaml:"deletedDates"`
	Deleted         bool     `yaml:"deleted"`
	CreatedAt       string   `yaml:"createdAt"`
	UpdatedAt       string   `yaml:"updatedAt"`
}

// localLayouts are tried in order after RFC3339. Parsing accepts a
// fractional second even where the layout has none.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads a stored timestamp. Values without an offset are
// taken in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Schedule converts the record. Offset-less timestamps are read in src.
func (r Record) Schedule(src *time.Location) (model.Schedule, error) {
	if src == nil {
		src = time.UTC
	}
	s := model.Schedule{
		ID:              r.ID,
		RepeatFrequency: r.RepeatFrequency,
		Weekdays:        model.NewWeekdaySet(r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday, r.Sunday),
		Notes:           r.Notes,
		Color:           r.Color,
		Deleted:         r.Deleted,
	}

	var err error
	if s.StartDate, err = ParseTimestamp(r.StartDate, src); err != nil {
		return model.Schedule{}, fmt.Errorf("record %s: startDate: %w", r.ID, err)
	}
	if s.EndDate, err = ParseTimestamp(r.EndDate, src); err != nil {
		return model.Schedule{}, fmt.Errorf("record %s: endDate: %w", r.ID, err)
	}
	if s.StartHour, err = schedule.ParseTimeOfDay(r.StartHour); err != nil {
		return model.Schedule{}, fmt.Errorf("record %s: startHour: %w", r.ID, err)
	}
	if s.EndHour, err = schedule.ParseTimeOfDay(r.EndHour); err != nil {
		return model.Schedule{}, fmt.Errorf("record %s: endHour: %w", r.ID, err)
	}

	for _, raw := range r.DeletedDates {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Schedule{}, fmt.Errorf("record %s: deletedDates: %w", r.ID, err)
		}
		s.DeletedDates = append(s.DeletedDates, d)
	}

	// Bookkeeping stamps are informational; unparsable ones are left zero.
	s.CreatedAt, _ = ParseTimestamp(r.CreatedAt, src)
	s.UpdatedAt, _ = ParseTimestamp(r.UpdatedAt, src)

	return s, nil
}
