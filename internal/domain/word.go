package domain

import (
	"fmt"
	"time"
)

// StatusKind is the tag of a word status
type StatusKind string

const (
	StatusProficient StatusKind = "proficient"
	StatusStruggling StatusKind = "struggling"
)

// MaxSeverity is the severity assigned to a word the first time it is heard
const MaxSeverity = 3

// Status is a tagged value: Proficient, or Struggling with a severity of 1..3
type Status struct {
	Kind     StatusKind
	Severity int
}

// Proficient returns the proficient status
func Proficient() Status {
	return Status{Kind: StatusProficient}
}

// Struggling returns a struggling status with the given severity
func Struggling(severity int) Status {
	return Status{Kind: StatusStruggling, Severity: severity}
}

// IsProficient reports whether the status is Proficient
func (s Status) IsProficient() bool {
	return s.Kind == StatusProficient
}

// String returns a short form like "proficient" or "struggling(2)"
func (s Status) String() string {
	if s.Kind == StatusStruggling {
		return fmt.Sprintf("struggling(%d)", s.Severity)
	}
	return string(s.Kind)
}

// WordRecord holds the review schedule of one word in one language.
// Word and Language together identify the record.
type WordRecord struct {
	Word             string
	Language         string
	Status           Status
	Repetitions      int
	PreviousInterval float64 // days
	LastPracticed    time.Time
	NextReview       time.Time
}

// Key returns the identity key of the record
func (w WordRecord) Key() WordKey {
	return WordKey{Word: w.Word, Language: w.Language}
}

// IsDue reports whether the word should be reviewed at the given time
func (w WordRecord) IsDue(asOf time.Time) bool {
	return !w.NextReview.After(asOf)
}

// WordKey identifies a word within a language
type WordKey struct {
	Word     string
	Language string
}
