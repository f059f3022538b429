// Package memory holds the in-process vocabulary store the scheduler works
// against during a call.
package memory

import (
	"sort"
	"sync"
	"time"

	"lingocall/internal/domain"
)

// VocabStore implements repository.VocabularyRepository in memory.
// Records keep their insertion order, which breaks ties in DueBefore.
type VocabStore struct {
	mu      sync.RWMutex
	records []domain.WordRecord
	index   map[domain.WordKey]int
}

// NewVocabStore creates an empty store
func NewVocabStore() *VocabStore {
	return &VocabStore{index: make(map[domain.WordKey]int)}
}

// Find returns a copy of the record, or nil if the word is unknown
func (s *VocabStore) Find(word, language string) (*domain.WordRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[domain.WordKey{Word: word, Language: language}]
	if !ok {
		return nil, nil
	}
	w := s.records[i]
	return &w, nil
}

// FindAll returns records of a language in insertion order
func (s *VocabStore) FindAll(language string) ([]domain.WordRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var words []domain.WordRecord
	for _, w := range s.records {
		if w.Language == language {
			words = append(words, w)
		}
	}
	return words, nil
}

// FindAllByStatus returns records of a language whose status has the given kind
func (s *VocabStore) FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var words []domain.WordRecord
	for _, w := range s.records {
		if w.Language == language && w.Status.Kind == kind {
			words = append(words, w)
		}
	}
	return words, nil
}

// Upsert inserts or replaces a record in place
func (s *VocabStore) Upsert(w domain.WordRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[w.Key()]; ok {
		s.records[i] = w
		return nil
	}
	s.index[w.Key()] = len(s.records)
	s.records = append(s.records, w)
	return nil
}

// DueBefore returns records due at asOf, earliest first
func (s *VocabStore) DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error) {
	s.mu.RLock()
	var due []domain.WordRecord
	for _, w := range s.records {
		if w.Language == language && w.IsDue(asOf) {
			due = append(due, w)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview.Before(due[j].NextReview)
	})
	return due, nil
}

// Len returns the number of records
func (s *VocabStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
