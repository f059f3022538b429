package postgres

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWord(s rowScanner) (domain.WordRecord, error) {
	var w domain.WordRecord
	var status string
	err := s.Scan(
		&w.Word, &w.Language, &status, &w.Status.Severity,
		&w.Repetitions, &w.PreviousInterval, &w.LastPracticed, &w.NextReview,
	)
	w.Status.Kind = domain.StatusKind(status)
	return w, err
}

// Find returns the record of a word in a language
func (r *VocabRepo) Find(word, language string) (*domain.WordRecord, error) {
	query := `
		SELECT ` + wordColumns + `
		FROM words
		WHERE word = $1 AND language = $2
	`
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
	query := `
		SELECT ` + wordColumns + `
		FROM words
		WHERE language = $1
		ORDER BY id
	`
	return r.queryWords(query, language)
}

// FindAllByStatus returns all records of a language with the given status kind
func (r *VocabRepo) FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error) {
	query := `
		SELECT ` + wordColumns + `
		FROM words
		WHERE language = $1 AND status = $2
		ORDER BY id
	`
	return r.queryWords(query, language, string(kind))
}

// Upsert inserts a record or replaces the schedule of an existing one
func (r *VocabRepo) Upsert(w domain.WordRecord) error {
	query := `
		INSERT INTO words (` + wordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (word, language)
		DO UPDATE SET
			status = EXCLUDED.status,
			severity = EXCLUDED.severity,
			repetitions = EXCLUDED.repetitions,
			previous_interval = EXCLUDED.previous_interval,
			last_practiced = EXCLUDED.last_practiced,
			next_review = EXCLUDED.next_review
	`
	_, err := r.db.Exec(query,
		w.Word, w.Language, string(w.Status.Kind), w.Status.Severity,
		w.Repetitions, w.PreviousInterval, w.LastPracticed, w.NextReview,
	)
	return err
}

// DueBefore returns words due at asOf, earliest first.
// Ties keep insertion order.
func (r *VocabRepo) DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error) {
	query := `
		SELECT ` + wordColumns + `
		FROM words
		WHERE language = $1 AND next_review <= $2
		ORDER BY next_review ASC, id ASC
	`
	return r.queryWords(query, language, asOf)
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
