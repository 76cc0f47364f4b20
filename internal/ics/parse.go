package ics

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"schedcheck/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ReadOptions bounds how busy ranges are read from a calendar.
type ReadOptions struct {
	// Start / End limit the ranges returned to those touching [Start, End].
	// A zero bound is open.
	Start time.Time
	End   time.Time

	// MaxOccurrencesPerEvent caps the expansion of one recurring event. If
	// zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ReadResult holds the busy ranges found in an ICS payload.
type ReadResult struct {
	Ranges []model.TimeRange
	// Skipped counts VEVENTs that could not be turned into ranges: missing
	// DTSTART/DTEND, end not after start, or an unparsable RRULE.
	Skipped int
	// Truncated lists UIDs of recurring events that hit the occurrence cap.
	Truncated []string
}

// event is a VEVENT reduced to what busy-time checks need.
type event struct {
	uid       string
	start     time.Time
	end       time.Time
	rawRRule  string
	exDates   []time.Time
	recurID   *time.Time
	cancelled bool
}

// ReadRanges parses an ICS payload into time ranges sorted by start.
//
//   - It relies on the library's TZID handling to build time.Time values.
//   - RRULE events are expanded with their EXDATEs; an override carrying a
//     RECURRENCE-ID replaces the matching occurrence, or drops it when the
//     override is cancelled.
func ReadRanges(body []byte, opts ReadOptions) (ReadResult, error) {
	var res ReadResult
	if len(body) == 0 {
		return res, errors.New("empty ICS body")
	}
	if !opts.Start.IsZero() && !opts.End.IsZero() && opts.End.Before(opts.Start) {
		return res, errors.New("ics read: End is before Start")
	}
	if opts.MaxOccurrencesPerEvent <= 0 {
		opts.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return res, err
	}

	var bases []event
	overrides := make(map[string][]event)
	for _, ve := range cal.Events() {
		ev, ok := parseEvent(ve)
		if !ok {
			res.Skipped++
			continue
		}
		if ev.recurID != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		bases = append(bases, ev)
	}

	used := make(map[*time.Time]bool)
	for _, ev := range bases {
		if ev.rawRRule == "" {
			res.add(model.TimeRange{Start: ev.start, End: ev.end}, opts)
			continue
		}

		ranges, hitCap, err := expandRecurring(ev, overrides[ev.uid], used, opts)
		if err != nil {
			res.Skipped++
			continue
		}
		if hitCap {
			res.Truncated = append(res.Truncated, ev.uid)
		}
		for _, r := range ranges {
			res.add(r, opts)
		}
	}

	// Overrides whose series is missing or did not produce their instant
	// still describe busy time.
	for _, list := range overrides {
		for _, ov := range list {
			if !used[ov.recurID] && !ov.cancelled {
				res.add(model.TimeRange{Start: ov.start, End: ov.end}, opts)
			}
		}
	}

	sort.SliceStable(res.Ranges, func(i, j int) bool {
		return res.Ranges[i].Start.Before(res.Ranges[j].Start)
	})
	return res, nil
}

func (res *ReadResult) add(r model.TimeRange, opts ReadOptions) {
	if !opts.Start.IsZero() && r.End.Before(opts.Start) {
		return
	}
	if !opts.End.IsZero() && r.Start.After(opts.End) {
		return
	}
	res.Ranges = append(res.Ranges, r)
}

func parseEvent(ve *ical.VEvent) (event, bool) {
	var ev event
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.uid = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return ev, false
	}
	if !end.After(start) {
		return ev, false
	}
	ev.start, ev.end = start, end

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rawRRule = p.Value
	}
	if p := ve.GetProperty(ical.ComponentProperty("STATUS")); p != nil {
		ev.cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	// EXDATE can repeat and hold comma-separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := paramLocation(p.ICalParameters, start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				ev.exDates = append(ev.exDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, paramLocation(p.ICalParameters, start.Location())); err == nil {
			ev.recurID = &t
		}
	}

	return ev, true
}

// expandRecurring lists the occurrences of ev, applying EXDATEs and
// overrides. Matched overrides are recorded in used.
func expandRecurring(ev event, overrides []event, used map[*time.Time]bool, opts ReadOptions) ([]model.TimeRange, bool, error) {
	r, err := rrule.StrToRRule(ev.rawRRule)
	if err != nil {
		return nil, false, err
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	dur := ev.end.Sub(ev.start)
	next := set.Iterator()

	var out []model.TimeRange
	for {
		occStart, ok := next()
		if !ok {
			return out, false, nil
		}
		if !opts.End.IsZero() && occStart.After(opts.End) {
			return out, false, nil
		}
		if len(out) == opts.MaxOccurrencesPerEvent {
			return out, true, nil
		}

		occ := model.TimeRange{Start: occStart, End: occStart.Add(dur)}
		if ov, found := findOverride(overrides, occStart); found {
			used[ov.recurID] = true
			if ov.cancelled {
				continue
			}
			occ = model.TimeRange{Start: ov.start, End: ov.end}
		}
		if !opts.Start.IsZero() && occ.End.Before(opts.Start) {
			continue
		}
		out = append(out, occ)
	}
}

// findOverride returns the override whose RECURRENCE-ID equals occStart.
func findOverride(overrides []event, occStart time.Time) (event, bool) {
	for _, ov := range overrides {
		if ov.recurID != nil && ov.recurID.Equal(occStart) {
			return ov, true
		}
	}
	return event{}, false
}

func paramLocation(params map[string][]string, fallback *time.Location) *time.Location {
	if tz, ok := params["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return fallback
}

// parseICSTime reads a DATE or DATE-TIME value. Values without a trailing Z
// are taken in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
