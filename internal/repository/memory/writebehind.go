package memory

import (
	"fmt"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/repository"

	"go.uber.org/zap"
)

// Submitter accepts fire-and-forget writes
type Submitter interface {
	Submit(name string, fn func() error) error
}

// WriteBehind serves reads and writes from a VocabStore and mirrors every
// write to a durable repository through a Submitter. The in-memory copy is
// authoritative; a mirrored write that fails is only logged.
type WriteBehind struct {
	cache   *VocabStore
	durable repository.VocabularyRepository
	queue   Submitter
	logger  *zap.Logger
}

// NewWriteBehind creates a write-behind store over durable
func NewWriteBehind(durable repository.VocabularyRepository, queue Submitter, logger *zap.Logger) *WriteBehind {
	return &WriteBehind{
		cache:   NewVocabStore(),
		durable: durable,
		queue:   queue,
		logger:  logger,
	}
}

// Warm loads every record of a language from the durable repository,
// keeping its insertion order
func (s *WriteBehind) Warm(language string) (int, error) {
	words, err := s.durable.FindAll(language)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s words: %w", language, err)
	}

	loaded := 0
	for _, w := range words {
		if existing, _ := s.cache.Find(w.Word, w.Language); existing != nil {
			continue
		}
		_ = s.cache.Upsert(w)
		loaded++
	}
	return loaded, nil
}

// Find reads the cache and falls back to the durable repository on a miss
func (s *WriteBehind) Find(word, language string) (*domain.WordRecord, error) {
	if w, _ := s.cache.Find(word, language); w != nil {
		return w, nil
	}

	// A failed lookup is not a miss: the word may hold durable progress
	// that a fresh record would overwrite.
	w, err := s.durable.Find(word, language)
	if err != nil {
		return nil, fmt.Errorf("durable lookup: %w", err)
	}
	if w != nil {
		_ = s.cache.Upsert(*w)
	}
	return w, nil
}

// FindAll reads the cache only
func (s *WriteBehind) FindAll(language string) ([]domain.WordRecord, error) {
	return s.cache.FindAll(language)
}

// FindAllByStatus reads the cache only
func (s *WriteBehind) FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error) {
	return s.cache.FindAllByStatus(language, kind)
}

// Upsert updates the cache and queues the durable write
func (s *WriteBehind) Upsert(w domain.WordRecord) error {
	if err := s.cache.Upsert(w); err != nil {
		return err
	}

	name := "upsert word " + w.Language + "/" + w.Word
	if err := s.queue.Submit(name, func() error { return s.durable.Upsert(w) }); err != nil {
		s.logger.Warn("Failed to queue word write",
			zap.String("word", w.Word),
			zap.String("language", w.Language),
			zap.Error(err),
		)
	}
	return nil
}

// DueBefore reads the cache only
func (s *WriteBehind) DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error) {
	return s.cache.DueBefore(language, asOf)
}
