package service

import (
	"fmt"
	"strings"

	"lingocall/internal/domain"
	"lingocall/internal/engine"
	"lingocall/internal/repository"
)

// LearnerService handles learner access and language preferences
type LearnerService struct {
	learnerRepo           repository.LearnerRepository
	botPassword           string
	defaultNativeLanguage string
}

// NewLearnerService creates a new learner service
func NewLearnerService(learnerRepo repository.LearnerRepository, botPassword, defaultNativeLanguage string) *LearnerService {
	return &LearnerService{
		learnerRepo:           learnerRepo,
		botPassword:           botPassword,
		defaultNativeLanguage: defaultNativeLanguage,
	}
}

// CheckPassword verifies if provided password matches
func (s *LearnerService) CheckPassword(password string) bool {
	return password == s.botPassword
}

// IsAuthorized checks if learner is authorized
func (s *LearnerService) IsAuthorized(userID int64) (bool, error) {
	return s.learnerRepo.IsAuthorized(userID)
}

// AuthorizeLearner authorizes a learner
func (s *LearnerService) AuthorizeLearner(userID int64) error {
	return s.learnerRepo.AuthorizeLearner(userID)
}

// EnsureLearnerExists creates learner record if doesn't exist
func (s *LearnerService) EnsureLearnerExists(userID int64) error {
	return s.learnerRepo.EnsureLearnerExists(userID)
}

// NativeLanguage returns the learner's fallback language, or the default
// when none was chosen
func (s *LearnerService) NativeLanguage(userID int64) (string, error) {
	language, err := s.learnerRepo.NativeLanguage(userID)
	if err != nil {
		return "", err
	}
	if language == "" {
		return s.defaultNativeLanguage, nil
	}
	return language, nil
}

// SetNativeLanguage stores a supported language code for the learner
func (s *LearnerService) SetNativeLanguage(userID int64, language string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(language))
	if !engine.IsSupported(code) {
		return "", fmt.Errorf("unsupported language %q", language)
	}
	if err := s.learnerRepo.SetNativeLanguage(userID, code); err != nil {
		return "", err
	}
	return code, nil
}

// Learner returns the learner's access and language settings
func (s *LearnerService) Learner(userID int64) (*domain.Learner, error) {
	authorized, err := s.learnerRepo.IsAuthorized(userID)
	if err != nil {
		return nil, err
	}
	native, err := s.NativeLanguage(userID)
	if err != nil {
		return nil, err
	}
	return &domain.Learner{
		UserID:         userID,
		Authorized:     authorized,
		NativeLanguage: native,
	}, nil
}
