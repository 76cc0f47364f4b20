// Package store reads schedule records from a YAML or JSON file. JSON is
// accepted because it is valid YAML.
package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"schedcheck/internal/model"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("store: schedule not found")

// Options controls record conversion.
type Options struct {
	// SourceLocation is the zone of timestamps without an offset. If nil,
	// time.UTC is used.
	SourceLocation *time.Location
}

// Store is an immutable, ordered set of schedules.
type Store struct {
	schedules []model.Schedule
	byID      map[string]int
}

// Load reads and parses the file at path.
func Load(path string, opts Options) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a list of records.
func Parse(data []byte, opts Options) (*Store, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}

	s := &Store{
		schedules: make([]model.Schedule, 0, len(records)),
		byID:      make(map[string]int, len(records)),
	}
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("store: record %d has no id", i)
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("store: duplicate id %s", r.ID)
		}
		sched, err := r.Schedule(opts.SourceLocation)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		s.byID[r.ID] = len(s.schedules)
		s.schedules = append(s.schedules, sched)
	}

	return s, nil
}

// All returns every schedule in file order, deleted ones included.
func (s *Store) All() []model.Schedule {
	out := make([]model.Schedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// Active returns schedules not marked deleted.
func (s *Store) Active() []model.Schedule {
	out := make([]model.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		if !sched.Deleted {
			out = append(out, sched)
		}
	}
	return out
}

// Find looks a schedule up by exact ID.
func (s *Store) Find(id string) (model.Schedule, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Schedule{}, false
	}
	return s.schedules[i], true
}

// Get is Find returning ErrNotFound.
func (s *Store) Get(id string) (model.Schedule, error) {
	sched, ok := s.Find(id)
	if !ok {
		return model.Schedule{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sched, nil
}
