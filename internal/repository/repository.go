package repository

import (
	"time"

	"lingocall/internal/domain"
)

// VocabularyRepository defines word schedule operations
type VocabularyRepository interface {
	// Find returns nil, nil when the word was never seen in the language
	Find(word, language string) (*domain.WordRecord, error)
	// FindAll returns every record of a language in insertion order
	FindAll(language string) ([]domain.WordRecord, error)
	FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error)
	Upsert(record domain.WordRecord) error
	// DueBefore returns records with NextReview <= asOf, earliest first
	DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error)
}

// LearnerRepository defines learner data operations
type LearnerRepository interface {
	IsAuthorized(userID int64) (bool, error)
	AuthorizeLearner(userID int64) error
	EnsureLearnerExists(userID int64) error
	NativeLanguage(userID int64) (string, error)
	SetNativeLanguage(userID int64, language string) error
}

// ContactRepository defines practice contact operations
type ContactRepository interface {
	ListContacts() ([]domain.Contact, error)
	// GetContact returns nil, nil when the contact does not exist
	GetContact(id int64) (*domain.Contact, error)
	TouchLastCall(id int64, at time.Time) error
}
