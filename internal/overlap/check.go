package overlap

import (
	"fmt"

	"schedcheck/internal/model"
	"schedcheck/internal/schedule"
)

// Report is the outcome of checking a candidate schedule against a base.
type Report struct {
	Base      model.Schedule
	Candidate model.Schedule

	BaseRanges      []model.TimeRange
	CandidateRanges []model.TimeRange

	Results []model.OverlapResult
}

// Conflicts returns the results that touched a base range.
func (r Report) Conflicts() []model.OverlapResult {
	var out []model.OverlapResult
	for _, res := range r.Results {
		if res.Overlaps() {
			out = append(out, res)
		}
	}
	return out
}

// HasConflict reports whether any candidate range overlapped the base.
func (r Report) HasConflict() bool {
	for _, res := range r.Results {
		if res.Overlaps() {
			return true
		}
	}
	return false
}

// Check expands both schedules and detects overlaps of candidate against
// base. If the candidate expands to nothing it returns the partial report
// together with an error matching ErrNoRangesGenerated.
func Check(base, candidate model.Schedule, cfg schedule.ExpandConfig, opts Options) (Report, error) {
	baseRanges, err := schedule.Expand(base, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("expand base: %w", err)
	}

	report, err := CheckAgainst(baseRanges, candidate, cfg, opts)
	report.Base = base
	return report, err
}

// CheckAgainst is Check for a base that is already a set of ranges, such as
// busy times imported from a calendar.
func CheckAgainst(baseRanges []model.TimeRange, candidate model.Schedule, cfg schedule.ExpandConfig, opts Options) (Report, error) {
	report := Report{Candidate: candidate, BaseRanges: baseRanges}

	candRanges, err := schedule.Expand(candidate, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("expand candidate: %w", err)
	}
	report.CandidateRanges = candRanges

	results, err := Detect(baseRanges, candRanges, opts)
	if err != nil {
		return report, fmt.Errorf("schedule %s: %w", candidate.ID, err)
	}
	report.Results = results

	return report, nil
}
