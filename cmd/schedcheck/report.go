package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"schedcheck/internal/config"
	appLog "schedcheck/internal/log"
	"schedcheck/internal/model"
	"schedcheck/internal/overlap"
	"schedcheck/internal/schedule"
)

// Process exit codes.
const (
	exitOK       = 0
	exitInvalid  = 1
	exitOverlap  = 2
	exitNoRanges = 3
)

func expandSchedule(s model.Schedule, cfg *config.Config) ([]model.TimeRange, error) {
	return schedule.Expand(s, cfg.ExpandConfig())
}

// outcome maps the result of a check onto an exit code.
func outcome(err error, report overlap.Report) int {
	switch {
	case errors.Is(err, overlap.ErrNoRangesGenerated):
		return exitNoRanges
	case err != nil:
		return exitInvalid
	case report.HasConflict():
		return exitOverlap
	}
	return exitOK
}

func logNoRanges(s model.Schedule, loc *time.Location) {
	appLog.Warn("no time ranges generated",
		"schedule_id", s.ID,
		"start_date", model.DateOf(s.StartDate.In(loc)).String(),
		"end_date", model.DateOf(s.EndDate.In(loc)).String(),
		"start_hour", schedule.FormatTimeOfDay(s.StartHour),
		"end_hour", schedule.FormatTimeOfDay(s.EndHour),
		"active_days", s.Weekdays.String(),
	)
}

func logReport(baseID string, report overlap.Report) {
	conflicts := report.Conflicts()
	if len(conflicts) == 0 {
		appLog.Info("no overlap",
			"base", baseID,
			"candidate", report.Candidate.ID,
			"base_ranges", len(report.BaseRanges),
			"candidate_ranges", len(report.CandidateRanges),
		)
		return
	}
	for _, c := range conflicts {
		appLog.Warn("overlap found",
			"base", baseID,
			"candidate", report.Candidate.ID,
			"range", c.Range.String(),
			"at_start", c.AtStart,
			"at_end", c.AtEnd,
			"covered", len(c.Covered),
		)
	}
}

func printReport(w io.Writer, report overlap.Report, loc *time.Location) {
	conflicts := report.Conflicts()
	fmt.Fprintf(w, "%d base ranges, %d candidate ranges, %d overlapping\n",
		len(report.BaseRanges), len(report.CandidateRanges), len(conflicts))

	for _, c := range conflicts {
		fmt.Fprintf(w, "  %s - %s  start=%t end=%t",
			c.Range.Start.In(loc).Format(rangeLayout),
			c.Range.End.In(loc).Format(rangeLayout),
			c.AtStart, c.AtEnd)
		if len(c.Covered) > 0 {
			fmt.Fprintf(w, " covers=%d", len(c.Covered))
		}
		fmt.Fprintln(w)
	}
}
