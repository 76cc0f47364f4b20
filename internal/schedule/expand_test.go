package schedule_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedcheck/internal/model"
	"schedcheck/internal/schedule"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func hour(t *testing.T, s string) int {
	t.Helper()
	m, err := schedule.ParseTimeOfDay(s)
	require.NoError(t, err)
	return m
}

func existingSchedule(t *testing.T) model.Schedule {
	return model.Schedule{
		ID:        "cmbg4c64x0002xeppp6yobcl8",
		StartDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC),
		StartHour: hour(t, "00:00"),
		EndHour:   hour(t, "04:30"),
		Weekdays:  model.NewWeekdaySet(false, false, true, true, true, false, false),
		DeletedDates: []model.Date{
			date(t, "2025-07-01T00:00:00.000Z"),
			date(t, "2025-07-22T00:00:00.000Z"),
			date(t, "2025-08-19T00:00:00.000Z"),
			date(t, "2025-09-16T00:00:00.000Z"),
		},
	}
}

func newSchedule(t *testing.T) model.Schedule {
	return model.Schedule{
		ID:        "cmbg9wjd1000010o2qhu8lrgt",
		StartDate: time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
		StartHour: hour(t, "01:00"),
		EndHour:   hour(t, "03:00"),
		Weekdays:  model.NewWeekdaySet(false, false, false, false, true, false, false),
	}
}

// expectedDates walks the calendar day by day with time.Weekday, independent
// of the expander's rrule path.
func expectedDates(s model.Schedule) []model.Date {
	skip := map[model.Date]bool{}
	for _, d := range s.DeletedDates {
		skip[d] = true
	}
	active := map[time.Weekday]bool{}
	for _, wd := range s.Weekdays.Days() {
		active[time.Weekday(int(wd)%7)] = true
	}

	var out []model.Date
	last := model.DateOf(s.EndDate)
	for d := s.StartDate; !last.Before(model.DateOf(d)); d = d.AddDate(0, 0, 1) {
		if active[d.Weekday()] && !skip[model.DateOf(d)] {
			out = append(out, model.DateOf(d))
		}
	}
	return out
}

func assertInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func rangeDates(ranges []model.TimeRange) []model.Date {
	out := make([]model.Date, len(ranges))
	for i, r := range ranges {
		out[i] = model.DateOf(r.Start)
	}
	return out
}

func TestExpand_ScenarioA_WedThuFriForAYear(t *testing.T) {
	s := existingSchedule(t)

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	// 2025-06-02 (Mon) .. 2026-06-02 (Tue) is 52 full weeks plus Mon+Tue.
	assert.Len(t, ranges, 52*3)
	assert.Equal(t, expectedDates(s), rangeDates(ranges))

	deleted := map[model.Date]bool{}
	for _, d := range s.DeletedDates {
		deleted[d] = true
	}
	for _, r := range ranges {
		d := model.DateOf(r.Start)
		assert.True(t, s.Weekdays.Has(d.Weekday()), "%s is %s", d, d.Weekday())
		assert.False(t, deleted[d], d.String())
		assert.Equal(t, 0, r.Start.Hour())
		assert.Equal(t, 0, r.Start.Minute())
		assert.Equal(t, 4, r.End.Hour())
		assert.Equal(t, 30, r.End.Minute())
		assert.Equal(t, 270*time.Minute, r.Duration())
	}

	first := ranges[0]
	assertInstant(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), first.Start)
	assertInstant(t, time.Date(2025, 6, 4, 4, 30, 0, 0, time.UTC), first.End)
	assertInstant(t, time.Date(2026, 5, 29, 0, 0, 0, 0, time.UTC), ranges[len(ranges)-1].Start)
}

func TestExpand_ScenarioA_RecordedExceptionsAreTuesdays(t *testing.T) {
	for _, d := range existingSchedule(t).DeletedDates {
		assert.Equal(t, model.Tuesday, d.Weekday(), d.String())
	}
}

func TestExpand_ExceptionsOnActiveWeekdaysAreSkipped(t *testing.T) {
	s := existingSchedule(t)
	s.DeletedDates = []model.Date{
		date(t, "2025-07-02"), // Wed
		date(t, "2025-07-24"), // Thu
		date(t, "2025-08-22"), // Fri
		date(t, "2025-09-17"), // Wed
	}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	assert.Len(t, ranges, 52*3-4)
	got := rangeDates(ranges)
	for _, d := range s.DeletedDates {
		assert.NotContains(t, got, d)
	}
	assert.Contains(t, got, date(t, "2025-07-03"))
	assert.Equal(t, expectedDates(s), got)
}

func TestExpand_ScenarioB_SingleFriday(t *testing.T) {
	ranges, err := schedule.Expand(newSchedule(t), schedule.ExpandConfig{})
	require.NoError(t, err)

	require.Len(t, ranges, 1)
	assertInstant(t, time.Date(2025, 6, 6, 1, 0, 0, 0, time.UTC), ranges[0].Start)
	assertInstant(t, time.Date(2025, 6, 6, 3, 0, 0, 0, time.UTC), ranges[0].End)
}

func TestExpand_ScenarioB_NoFridayInRange(t *testing.T) {
	s := newSchedule(t)
	s.EndDate = s.StartDate // Thursday only

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)
	assert.NotNil(t, ranges)
	assert.Empty(t, ranges)
}

func TestExpand_StoredInstantsInUTCPlus7(t *testing.T) {
	// The stored records keep local midnight in UTC+7 as 17:00 UTC of the previous day.
	loc := time.FixedZone("UTC+7", 7*60*60)
	s := newSchedule(t)
	s.StartDate = time.Date(2025, 6, 5, 17, 0, 0, 0, time.UTC)
	s.EndDate = time.Date(2025, 6, 6, 16, 59, 59, 999e6, time.UTC)

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{Location: loc})
	require.NoError(t, err)

	require.Len(t, ranges, 1)
	assertInstant(t, time.Date(2025, 6, 6, 1, 0, 0, 0, loc), ranges[0].Start)
	assertInstant(t, time.Date(2025, 6, 6, 3, 0, 0, 0, loc), ranges[0].End)
	assertInstant(t, time.Date(2025, 6, 5, 18, 0, 0, 0, time.UTC), ranges[0].Start)
}

func TestExpand_EmptyWeekdaySet(t *testing.T) {
	s := existingSchedule(t)
	s.Weekdays = 0

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestExpand_AllDatesDeleted(t *testing.T) {
	s := newSchedule(t)
	s.DeletedDates = []model.Date{date(t, "2025-06-06")}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)
	assert.Empty(t, ranges)
}

func TestExpand_OvernightWindowEndsNextDay(t *testing.T) {
	s := model.Schedule{
		ID:        "night",
		StartDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		StartHour: hour(t, "22:00"),
		EndHour:   hour(t, "02:00"),
		Weekdays:  model.NewWeekdaySet(false, false, false, false, false, false, true),
	}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	require.Len(t, ranges, 1)
	assertInstant(t, time.Date(2025, 6, 8, 22, 0, 0, 0, time.UTC), ranges[0].Start)
	assertInstant(t, time.Date(2025, 6, 9, 2, 0, 0, 0, time.UTC), ranges[0].End)
	assert.Equal(t, 4*time.Hour, ranges[0].Duration())
}

func TestExpand_EqualHoursIsFullDay(t *testing.T) {
	s := newSchedule(t)
	s.EndHour = s.StartHour

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	require.Len(t, ranges, 1)
	assert.Equal(t, 24*time.Hour, ranges[0].Duration())
}

func TestExpand_KeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := model.Schedule{
		ID:        "dst",
		StartDate: time.Date(2025, 3, 2, 0, 0, 0, 0, ny),
		EndDate:   time.Date(2025, 3, 16, 0, 0, 0, 0, ny),
		StartHour: hour(t, "09:00"),
		EndHour:   hour(t, "10:00"),
		Weekdays:  model.NewWeekdaySet(false, false, false, false, false, false, true),
	}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{Location: ny})
	require.NoError(t, err)

	require.Len(t, ranges, 3)
	for _, r := range ranges {
		assert.Equal(t, 9, r.Start.Hour())
		assert.Equal(t, 10, r.End.Hour())
		assert.Equal(t, time.Hour, r.Duration())
	}
	// 2025-03-09 switches EST to EDT: same wall clock, different UTC hour.
	assert.Equal(t, 14, ranges[0].Start.UTC().Hour())
	assert.Equal(t, 13, ranges[2].Start.UTC().Hour())
}

func TestExpand_ShortWindowsNeverInvert(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := model.Schedule{
		ID:        "gap",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, ny),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, ny),
		StartHour: hour(t, "02:30"),
		EndHour:   hour(t, "03:00"),
		Weekdays:  model.NewWeekdaySet(false, false, false, false, false, false, true),
	}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{Location: ny})
	require.NoError(t, err)

	assert.NotEmpty(t, ranges)
	for i, r := range ranges {
		assert.True(t, r.Start.Before(r.End), r.String())
		if i > 0 {
			assert.True(t, ranges[i-1].Start.Before(r.Start))
		}
	}
}

func TestExpand_FirstDateInDSTGap(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-03-09 is a Sunday and 02:30 does not exist in New York that day.
	s := model.Schedule{
		ID:           "spring-forward",
		StartDate:    time.Date(2025, 3, 9, 0, 0, 0, 0, ny),
		EndDate:      time.Date(2025, 3, 30, 0, 0, 0, 0, ny),
		StartHour:    hour(t, "02:30"),
		EndHour:      hour(t, "04:00"),
		Weekdays:     model.NewWeekdaySet(false, false, false, false, false, false, true),
		DeletedDates: []model.Date{date(t, "2025-03-16")},
	}

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{Location: ny})
	require.NoError(t, err)

	require.Len(t, ranges, 3)
	assert.Equal(t, date(t, "2025-03-09"), model.DateOf(ranges[0].Start.In(ny)))
	for _, r := range ranges[1:] {
		assert.NotEqual(t, date(t, "2025-03-16"), model.DateOf(r.Start.In(ny)))
		local := r.Start.In(ny)
		assert.Equal(t, 2, local.Hour(), r.String())
		assert.Equal(t, 30, local.Minute(), r.String())
		assert.Equal(t, 90*time.Minute, r.Duration())
	}
	assert.Equal(t, date(t, "2025-03-23"), model.DateOf(ranges[1].Start.In(ny)))
	assert.Equal(t, date(t, "2025-03-30"), model.DateOf(ranges[2].Start.In(ny)))
}

func TestExpand_Deterministic(t *testing.T) {
	s := existingSchedule(t)

	a, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)
	b, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestExpand_EveryRangeInsideDateBounds(t *testing.T) {
	s := existingSchedule(t)
	s.Weekdays = model.NewWeekdaySet(true, true, true, true, true, true, true)

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)

	assert.Len(t, ranges, 366-len(s.DeletedDates))
	first, last := model.DateOf(s.StartDate), model.DateOf(s.EndDate)
	for _, r := range ranges {
		d := model.DateOf(r.Start)
		assert.False(t, d.Before(first), d.String())
		assert.False(t, last.Before(d), d.String())
		assert.True(t, r.Start.Before(r.End))
	}
}

func TestExpand_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Schedule)
		cfg    schedule.ExpandConfig
		want   error
	}{
		{"start hour too large", func(s *model.Schedule) { s.StartHour = 1440 }, schedule.ExpandConfig{}, schedule.ErrInvalidTimeOfDay},
		{"end hour negative", func(s *model.Schedule) { s.EndHour = -1 }, schedule.ExpandConfig{}, schedule.ErrInvalidTimeOfDay},
		{"end before start", func(s *model.Schedule) { s.EndDate = s.StartDate.Add(-time.Millisecond) }, schedule.ExpandConfig{}, schedule.ErrInvalidDateRange},
		{"too many days", func(s *model.Schedule) {}, schedule.ExpandConfig{MaxDays: 365}, schedule.ErrRangeTooLarge},
		{"monthly frequency", func(s *model.Schedule) { s.RepeatFrequency = "MONTHLY" }, schedule.ExpandConfig{}, schedule.ErrUnsupportedFrequency},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := existingSchedule(t)
			c.mutate(&s)

			ranges, err := schedule.Expand(s, c.cfg)
			assert.ErrorIs(t, err, c.want)
			assert.Nil(t, ranges)
		})
	}
}

func TestExpand_RangeTooLargeCarriesDayCount(t *testing.T) {
	_, err := schedule.Expand(existingSchedule(t), schedule.ExpandConfig{MaxDays: 30})

	var tooLarge *schedule.RangeTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 366, tooLarge.Days)
	assert.Equal(t, 30, tooLarge.Max)
}

func TestExpand_MaxDaysIsInclusive(t *testing.T) {
	s := newSchedule(t) // two calendar days

	_, err := schedule.Expand(s, schedule.ExpandConfig{MaxDays: 2})
	assert.NoError(t, err)

	_, err = schedule.Expand(s, schedule.ExpandConfig{MaxDays: 1})
	assert.ErrorIs(t, err, schedule.ErrRangeTooLarge)
}

func TestExpand_NoneFrequencyAccepted(t *testing.T) {
	s := newSchedule(t)
	s.RepeatFrequency = "NONE"

	ranges, err := schedule.Expand(s, schedule.ExpandConfig{})
	require.NoError(t, err)
	assert.Len(t, ranges, 1)
}
