package model

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate reads the leading YYYY-MM-DD of s. Anything after the date
// (time of day, offset) is ignored, so "2025-07-01T00:00:00.000Z" and
// "2025-07-01 17:00:00" both yield 2025-07-01.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return Date{}, fmt.Errorf("parse date %q: too short", s)
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// At returns the instant at minutes past midnight of d in loc.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, minutes/60, minutes%60, 0, 0, loc)
}

// AddDays moves d by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// DaysUntil returns the number of calendar days from d to other. It is
// computed on UTC midnights so DST never shortens a day.
func (d Date) DaysUntil(other Date) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, other.Month, other.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.DaysUntil(other) > 0
}

// Weekday returns the ISO weekday of d.
func (d Date) Weekday() Weekday {
	return ISOWeekday(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday uses ISO numbering: Monday=1 ... Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ISOWeekday converts the weekday of t (in t's location) to ISO numbering.
// time.Weekday counts Sunday as 0; everything else lines up.
func ISOWeekday(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// WeekdaySet is a bitmask of active weekdays, bit w for Weekday w.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the seven per-day flags in Monday..Sunday order.
func NewWeekdaySet(mon, tue, wed, thu, fri, sat, sun bool) WeekdaySet {
	var s WeekdaySet
	for i, on := range []bool{mon, tue, wed, thu, fri, sat, sun} {
		if on {
			s = s.With(Weekday(i + 1))
		}
	}
	return s
}

// With returns s with w added.
func (s WeekdaySet) With(w Weekday) WeekdaySet {
	return s | 1<<uint(w)
}

// Has reports whether w is active.
func (s WeekdaySet) Has(w Weekday) bool {
	return s&(1<<uint(w)) != 0
}

// Empty reports whether no weekday is active.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days lists the active weekdays in Monday..Sunday order.
func (s WeekdaySet) Days() []Weekday {
	var out []Weekday
	for w := Monday; w <= Sunday; w++ {
		if s.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ",")
}
