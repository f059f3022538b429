package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/repository"
	"lingocall/internal/tokenizer"

	"go.uber.org/zap"
)

const (
	// perfectQuality is the recall quality used when a word becomes proficient
	perfectQuality = 5

	proficientFloorDays = 1.0
	strugglingFloorDays = 0.5

	// strugglingAcceleration makes struggling words come back three times as often
	strugglingAcceleration = 3.0

	// firstTouchIntervalDays is the interval of a word heard for the first time.
	// The ease factor does not take part in it.
	firstTouchIntervalDays = 1.0 / 3.0
)

// easeFactor is the modified SM-2 factor for a review of the given quality
func easeFactor(repetitions, quality int) float64 {
	return 2.5 + (0.15 - 0.05*float64(repetitions)) - 0.9*(1-float64(quality)/5)
}

// rawInterval is the SM-2 interval in days, never below floor
func rawInterval(previous float64, repetitions, quality int, floor float64) float64 {
	return math.Max(floor, previous*easeFactor(repetitions, quality))
}

// addDays adds a fractional number of days to t, truncated toward zero to
// whole minutes.
func addDays(t time.Time, days float64) time.Time {
	minutes := int64(days * 24 * 60)
	return t.Add(time.Duration(minutes) * time.Minute)
}

// Scheduler classifies heard words and decides when each should be reviewed
type Scheduler struct {
	store     repository.VocabularyRepository
	tokenizer *tokenizer.Tokenizer
	logger    *zap.Logger
	now       func() time.Time

	locks sync.Map // domain.WordKey -> *sync.Mutex
}

// NewScheduler creates a new scheduler over store
func NewScheduler(store repository.VocabularyRepository, tok *tokenizer.Tokenizer, logger *zap.Logger) *Scheduler {
	if tok == nil {
		tok = tokenizer.New()
	}
	return &Scheduler{
		store:     store,
		tokenizer: tok,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Scheduler) lock(key domain.WordKey) func() {
	m, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ProcessWord applies one encounter of word to its schedule and returns the
// resulting status.
func (s *Scheduler) ProcessWord(word, language string) (domain.Status, error) {
	defer s.lock(domain.WordKey{Word: word, Language: language})()

	now := s.now()

	record, err := s.store.Find(word, language)
	if err != nil {
		return domain.Status{}, fmt.Errorf("failed to find word %q: %w", word, err)
	}

	var next domain.WordRecord
	switch {
	case record == nil:
		next = firstTouch(word, language, now)
	case record.Status.IsProficient():
		next = *record
		next.LastPracticed = now
	case record.Status.Severity > 0:
		next = advance(*record, now)
	default:
		// Struggling with no severity left only comes from a damaged store.
		next = *record
		next.Status = domain.Proficient()
		next.LastPracticed = now
	}

	if err := s.store.Upsert(next); err != nil {
		return domain.Status{}, fmt.Errorf("failed to save word %q: %w", word, err)
	}
	return next.Status, nil
}

func firstTouch(word, language string, now time.Time) domain.WordRecord {
	return domain.WordRecord{
		Word:             word,
		Language:         language,
		Status:           domain.Struggling(domain.MaxSeverity),
		Repetitions:      0,
		PreviousInterval: 0,
		LastPracticed:    now,
		NextReview:       addDays(now, firstTouchIntervalDays),
	}
}

// advance moves a struggling word one step toward proficiency
func advance(w domain.WordRecord, now time.Time) domain.WordRecord {
	before := w.Status.Severity
	after := before - 1

	var interval float64
	if after == 0 {
		interval = rawInterval(w.PreviousInterval, w.Repetitions, perfectQuality, proficientFloorDays)
		w.Status = domain.Proficient()
		w.Repetitions++
	} else {
		quality := perfectQuality - before
		interval = rawInterval(w.PreviousInterval, w.Repetitions, quality, strugglingFloorDays) / strugglingAcceleration
		w.Status = domain.Struggling(after)
	}

	w.PreviousInterval = interval
	w.LastPracticed = now
	w.NextReview = addDays(now, interval)
	return w
}

// ProcessUtterance classifies every distinct word of text. A word that
// cannot be processed is logged and left out of the result.
func (s *Scheduler) ProcessUtterance(text, language string) map[string]domain.Status {
	words := s.tokenizer.TokenizeLanguage(text, language)

	// Sorted so the store sees new words in a stable order.
	ordered := make([]string, 0, len(words))
	for w := range words {
		ordered = append(ordered, w)
	}
	sort.Strings(ordered)

	result := make(map[string]domain.Status, len(ordered))
	for _, w := range ordered {
		status, err := s.ProcessWord(w, language)
		if err != nil {
			s.logger.Error("Failed to process word",
				zap.String("word", w),
				zap.String("language", language),
				zap.Error(err),
			)
			continue
		}
		result[w] = status
	}

	s.logger.Debug("Utterance processed",
		zap.String("language", language),
		zap.Int("words", len(result)),
	)
	return result
}

// DueWords returns words of a language due for review at asOf, earliest first
func (s *Scheduler) DueWords(language string, asOf time.Time) ([]string, error) {
	records, err := s.store.DueBefore(language, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due words: %w", err)
	}

	words := make([]string, len(records))
	for i, r := range records {
		words[i] = r.Word
	}
	return words, nil
}
