package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"schedcheck/internal/model"
)

const productID = "-//schedcheck//schedule export//EN"

// Export renders the expanded ranges of s as a VCALENDAR with one VEVENT
// per range. stamp becomes DTSTAMP on every event so output is stable for
// a given input.
func Export(s model.Schedule, ranges []model.TimeRange, stamp time.Time) ([]byte, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("ics export: schedule has no id")
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	summary := s.Notes
	if summary == "" {
		summary = s.ID
	}

	for _, r := range ranges {
		ev := cal.AddEvent(EventUID(s.ID, r))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(r.Start)
		ev.SetEndAt(r.End)
		ev.SetSummary(summary)
		if s.Color != "" {
			ev.SetProperty(ical.ComponentPropertyColor, s.Color)
		}
	}

	return []byte(cal.Serialize()), nil
}

// EventUID is "<schedule id>-<yyyymmdd>" of the range's start date.
func EventUID(scheduleID string, r model.TimeRange) string {
	return scheduleID + "-" + r.Start.Format("20060102")
}
