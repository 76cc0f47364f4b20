package main

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"schedcheck/internal/model"
	"schedcheck/internal/store"
)

// Matcher finds schedules by id or by the words in their notes.
type Matcher struct {
	list  []model.Schedule
	words []string
	owner []int
}

// NewMatcher indexes the id and the notes of every schedule in list.
func NewMatcher(list []model.Schedule) *Matcher {
	m := &Matcher{list: list}
	for i, s := range list {
		m.add(i, s.ID)
		if s.Notes != "" {
			m.add(i, s.Notes)
		}
	}
	return m
}

func (m *Matcher) add(i int, word string) {
	m.words = append(m.words, word)
	m.owner = append(m.owner, i)
}

// Match returns every schedule with an id or notes fuzzily matching str.
func (m *Matcher) Match(str string) []model.Schedule {
	matches := fuzzy.FindNormalizedFold(str, m.words)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var result []model.Schedule
	for _, word := range matches {
		for j, w := range m.words {
			if w != word || seen[m.owner[j]] {
				continue
			}
			seen[m.owner[j]] = true
			result = append(result, m.list[m.owner[j]])
		}
	}
	return result
}

// resolve looks a schedule up by exact id first, then by a fuzzy match over
// the active schedules. More than one fuzzy hit is an error.
func resolve(st *store.Store, query string) (model.Schedule, error) {
	if s, ok := st.Find(query); ok {
		return s, nil
	}

	hits := NewMatcher(st.Active()).Match(query)
	switch len(hits) {
	case 0:
		return model.Schedule{}, fmt.Errorf("%q: %w", query, store.ErrNotFound)
	case 1:
		return hits[0], nil
	}

	ids := make([]string, len(hits))
	for i, s := range hits {
		ids[i] = s.ID
	}
	return model.Schedule{}, fmt.Errorf("%q matches %d schedules: %s", query, len(hits), strings.Join(ids, ", "))
}
