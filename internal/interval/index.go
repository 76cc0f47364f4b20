// Package interval answers point-containment queries over a fixed set of
// time ranges. Ranges are closed: a range contains both its start and end.
package interval

import (
	"sort"
	"time"

	"schedcheck/internal/model"
)

// Index is read-only once built and safe for concurrent readers.
type Index interface {
	// QueryPoint returns every indexed range containing t, ordered by start.
	QueryPoint(t time.Time) []model.TimeRange
}

// InsideQuerier is implemented by indexes that can also list ranges lying
// strictly inside a window.
type InsideQuerier interface {
	QueryInside(w model.TimeRange) []model.TimeRange
}

// Builder constructs an Index over ranges. The input slice is not retained.
type Builder func(ranges []model.TimeRange) Index

// Sorted keeps ranges ordered by start and treats the slice as an implicit
// balanced tree: the node for [lo, hi) is ranges[mid], mid = (lo+hi)/2.
// maxEnd[mid] is the latest End in that node's subtree, so a stabbing query
// skips every subtree that ends before the point and every right subtree
// whose root starts after it.
type Sorted struct {
	ranges []model.TimeRange
	maxEnd []time.Time
}

// Build creates a Sorted index.
func Build(ranges []model.TimeRange) Index {
	return NewSorted(ranges)
}

// NewSorted copies and sorts ranges.
func NewSorted(ranges []model.TimeRange) *Sorted {
	if len(ranges) == 0 {
		return &Sorted{}
	}

	rs := make([]model.TimeRange, len(ranges))
	copy(rs, ranges)
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Start.Equal(rs[j].Start) {
			return rs[i].End.Before(rs[j].End)
		}
		return rs[i].Start.Before(rs[j].Start)
	})

	s := &Sorted{ranges: rs, maxEnd: make([]time.Time, len(rs))}
	s.fill(0, len(rs))
	return s
}

// fill computes maxEnd for the subtree [lo, hi) and returns it.
func (s *Sorted) fill(lo, hi int) time.Time {
	mid := int(uint(lo+hi) >> 1)
	m := s.ranges[mid].End
	if lo < mid {
		if e := s.fill(lo, mid); e.After(m) {
			m = e
		}
	}
	if mid+1 < hi {
		if e := s.fill(mid+1, hi); e.After(m) {
			m = e
		}
	}
	s.maxEnd[mid] = m
	return m
}

// Len returns the number of indexed ranges.
func (s *Sorted) Len() int {
	return len(s.ranges)
}

func (s *Sorted) QueryPoint(t time.Time) []model.TimeRange {
	var hits []model.TimeRange
	s.stab(0, len(s.ranges), t, &hits)
	return hits
}

// stab appends, in start order, the ranges of subtree [lo, hi) containing t.
// It returns the number of nodes visited.
func (s *Sorted) stab(lo, hi int, t time.Time, hits *[]model.TimeRange) int {
	if lo >= hi {
		return 0
	}
	mid := int(uint(lo+hi) >> 1)
	if s.maxEnd[mid].Before(t) {
		return 1
	}

	visited := 1 + s.stab(lo, mid, t, hits)
	r := s.ranges[mid]
	if r.Start.After(t) {
		return visited
	}
	if !r.End.Before(t) {
		*hits = append(*hits, r)
	}
	return visited + s.stab(mid+1, hi, t, hits)
}

// QueryInside returns ranges r with w.Start < r.Start and r.End < w.End.
func (s *Sorted) QueryInside(w model.TimeRange) []model.TimeRange {
	lo := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].Start.After(w.Start)
	})

	var hits []model.TimeRange
	for i := lo; i < len(s.ranges) && s.ranges[i].Start.Before(w.End); i++ {
		if s.ranges[i].End.Before(w.End) {
			hits = append(hits, s.ranges[i])
		}
	}
	return hits
}

// Linear is the reference implementation: a full scan per query.
type Linear []model.TimeRange

// BuildLinear creates a Linear index.
func BuildLinear(ranges []model.TimeRange) Index {
	rs := make(Linear, len(ranges))
	copy(rs, ranges)
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Start.Equal(rs[j].Start) {
			return rs[i].End.Before(rs[j].End)
		}
		return rs[i].Start.Before(rs[j].Start)
	})
	return rs
}

func (l Linear) QueryPoint(t time.Time) []model.TimeRange {
	var hits []model.TimeRange
	for _, r := range l {
		if r.Contains(t) {
			hits = append(hits, r)
		}
	}
	return hits
}

func (l Linear) QueryInside(w model.TimeRange) []model.TimeRange {
	var hits []model.TimeRange
	for _, r := range l {
		if w.Start.Before(r.Start) && r.End.Before(w.End) {
			hits = append(hits, r)
		}
	}
	return hits
}
