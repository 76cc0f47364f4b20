package overlap

import (
	"errors"

	"schedcheck/internal/interval"
	"schedcheck/internal/model"
)

var (
	// ErrNoRangesGenerated signals that the candidate side is empty. It is not
	// an overlap verdict: there was nothing to compare.
	ErrNoRangesGenerated = errors.New("overlap: no time ranges generated")

	// ErrIntersectUnsupported is returned when Options.Intersect is set but the
	// index cannot answer window queries.
	ErrIntersectUnsupported = errors.New("overlap: index does not support intersection queries")
)

// Options tunes detection.
type Options struct {
	// Intersect additionally reports base ranges lying strictly inside a
	// candidate range. Endpoint containment alone misses those.
	Intersect bool

	// Builder creates the base index. If nil, interval.Build is used.
	Builder interval.Builder
}

// Detector holds an index over the base ranges. It may be shared by
// concurrent callers.
type Detector struct {
	index interval.Index
	opts  Options
}

// NewDetector indexes base once.
func NewDetector(base []model.TimeRange, opts Options) *Detector {
	build := opts.Builder
	if build == nil {
		build = interval.Build
	}
	return &Detector{index: build(base), opts: opts}
}

// Detect checks each candidate range against the base index and returns
// one result per candidate, in candidate order.
func (d *Detector) Detect(candidates []model.TimeRange) ([]model.OverlapResult, error) {
	if len(candidates) == 0 {
		return nil, ErrNoRangesGenerated
	}

	var inside interval.InsideQuerier
	if d.opts.Intersect {
		q, ok := d.index.(interval.InsideQuerier)
		if !ok {
			return nil, ErrIntersectUnsupported
		}
		inside = q
	}

	results := make([]model.OverlapResult, len(candidates))
	for i, c := range candidates {
		startHits := d.index.QueryPoint(c.Start)
		endHits := d.index.QueryPoint(c.End)

		res := model.OverlapResult{
			Range:     c,
			AtStart:   len(startHits) > 0,
			AtEnd:     len(endHits) > 0,
			StartHits: startHits,
			EndHits:   endHits,
		}
		if inside != nil {
			res.Covered = inside.QueryInside(c)
		}
		results[i] = res
	}

	return results, nil
}

// Detect is a one-shot NewDetector(base, opts).Detect(candidates).
func Detect(base, candidates []model.TimeRange, opts Options) ([]model.OverlapResult, error) {
	return NewDetector(base, opts).Detect(candidates)
}
