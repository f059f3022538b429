package testutil

import (
	"context"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/engine"

	"github.com/stretchr/testify/mock"
)

// MockLearnerRepository is a mock for LearnerRepository
type MockLearnerRepository struct {
	mock.Mock
}

func (m *MockLearnerRepository) IsAuthorized(userID int64) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLearnerRepository) AuthorizeLearner(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockLearnerRepository) EnsureLearnerExists(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockLearnerRepository) NativeLanguage(userID int64) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockLearnerRepository) SetNativeLanguage(userID int64, language string) error {
	args := m.Called(userID, language)
	return args.Error(0)
}

// MockVocabularyRepository is a mock for VocabularyRepository
type MockVocabularyRepository struct {
	mock.Mock
}

func (m *MockVocabularyRepository) Find(word, language string) (*domain.WordRecord, error) {
	args := m.Called(word, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WordRecord), args.Error(1)
}

func (m *MockVocabularyRepository) FindAll(language string) ([]domain.WordRecord, error) {
	args := m.Called(language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WordRecord), args.Error(1)
}

func (m *MockVocabularyRepository) FindAllByStatus(language string, kind domain.StatusKind) ([]domain.WordRecord, error) {
	args := m.Called(language, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WordRecord), args.Error(1)
}

func (m *MockVocabularyRepository) Upsert(record domain.WordRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockVocabularyRepository) DueBefore(language string, asOf time.Time) ([]domain.WordRecord, error) {
	args := m.Called(language, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WordRecord), args.Error(1)
}

// MockContactRepository is a mock for ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) ListContacts() ([]domain.Contact, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *MockContactRepository) GetContact(id int64) (*domain.Contact, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockContactRepository) TouchLastCall(id int64, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

// MockTextGenerator is a mock for engine.TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt, language string) (string, error) {
	args := m.Called(ctx, prompt, language)
	return args.String(0), args.Error(1)
}

// MockTranscriber is a mock for engine.Transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

// MockSynthesizer is a mock for engine.Synthesizer
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Speak(ctx context.Context, text, language string) error {
	args := m.Called(ctx, text, language)
	return args.Error(0)
}

func (m *MockSynthesizer) StopImmediately() {
	m.Called()
}

// MockAudioCapture is a mock for engine.AudioCapture
type MockAudioCapture struct {
	mock.Mock
}

func (m *MockAudioCapture) Start(ctx context.Context) (engine.CaptureHandle, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.CaptureHandle), args.Error(1)
}

func (m *MockAudioCapture) Stop(handle engine.CaptureHandle) ([]byte, error) {
	args := m.Called(handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
