package sqlite

import (
	"database/sql"
	"time"

	"lingocall/internal/domain"
)

const wordColumns = `word, language, status, severity, repetitions, previous_interval, last_practiced, next_review`

// VocabRepo implements repository.VocabularyRepository
type VocabRepo struct {
	db *sql.DB
}

// NewVocabRepo creates a new vocabulary repository
func NewVocabRepo(db *sql.DB) *VocabRepo {
	return &VocabRepo{db: db}
}

func scanWord(s rowScanner) (domain.WordRecord, error) {
	var w domain.WordRecord
	var status string
	var lastPracticed, nextReview int64
	if err := s.Scan(
		&w.Word, &w.Language, &status, &w.Status.Severity,
		&w.Repetitions, &w.PreviousInterval, &lastPracticed, &nextReview,
	); err != nil {
		return w, err
	}
	w.Status.Kind = domain.StatusKind(status)
	w.LastPracticed = fromUnix(lastPracticed)
	w.NextReview = fromUnix(nextReview)
	return w, nil
}

// Find returns the record of a word in a language
func (r *VocabRepo) Find(word, language string) (*domain.WordRecord, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE word = ? AND language = ?`
	w, err := scanWord(r.db.QueryRow(query, word, language))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// FindAll returns all records of a language in insertion order
func (r *VocabRepo) FindAll(language string) ([]domain.WordRecord, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE language = ? ORDER BY id`
	return r.queryWords(query, language)
}

// FindAllByStatus returns all records of a language with the given status kind
func (r *VocabRepo) FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE language = ? AND status = ? ORDER BY id`
	return r.queryWords(query, language, string(kind))
}

// Upsert inserts a record or replaces the schedule of an existing one
func (r *VocabRepo) Upsert(w domain.WordRecord) error {
	query := `
		INSERT INTO words (` + wordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (word, language)
		DO UPDATE SET
			status = excluded.status,
			severity = excluded.severity,
			repetitions = excluded.repetitions,
			previous_interval = excluded.previous_interval,
			last_practiced = excluded.last_practiced,
			next_review = excluded.next_review
	`
	_, err := r.db.Exec(query,
		w.Word, w.Language, string(w.Status.Kind), w.Status.Severity,
		w.Repetitions, w.PreviousInterval, toUnix(w.LastPracticed), toUnix(w.NextReview),
	)
	return err
}

// DueBefore returns words due at asOf, earliest first.
// Ties keep insertion order.
func (r *VocabRepo) DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error) {
	query := `
		SELECT ` + wordColumns + `
		FROM words
		WHERE language = ? AND next_review <= ?
		ORDER BY next_review ASC, id ASC
	`
	return r.queryWords(query, language, asOf.UnixNano())
}

func (r *VocabRepo) queryWords(query string, args ...any) ([]domain.WordRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []domain.WordRecord
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	return words, rows.Err()
}
