package domain

// Learner represents a bot user practicing a language
type Learner struct {
	UserID         int64
	Authorized     bool
	NativeLanguage string
}
