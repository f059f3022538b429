package testutil

import (
	"time"

	"lingocall/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestLearner creates a test learner
func NewTestLearner(userID int64, authorized bool) *domain.Learner {
	return &domain.Learner{
		UserID:         userID,
		Authorized:     authorized,
		NativeLanguage: "ru",
	}
}

// NewTestContact creates a test contact
func NewTestContact(id int64, name, language string) *domain.Contact {
	return &domain.Contact{
		ID:       id,
		Name:     name,
		Language: language,
		Persona:  name + " likes talking about food and travel.",
	}
}

// NewTestWord creates a struggling test word due at nextReview
func NewTestWord(word, language string, severity int, nextReview time.Time) domain.WordRecord {
	return domain.WordRecord{
		Word:       word,
		Language:   language,
		Status:     domain.Struggling(severity),
		NextReview: nextReview,
	}
}

// FixedClock returns a clock function that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
