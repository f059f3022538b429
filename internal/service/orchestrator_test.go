package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/engine"
	"lingocall/internal/repository/memory"
	"lingocall/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

type callFixture struct {
	store       *memory.VocabStore
	capture     *testutil.FakeCapture
	transcriber *testutil.FakeTranscriber
	generator   *testutil.FakeGenerator
	speaker     *testutil.FakeSynthesizer
	deps        OrchestratorDeps
	cfg         OrchestratorConfig
}

func newCallFixture() *callFixture {
	f := &callFixture{
		store:       memory.NewVocabStore(),
		capture:     testutil.NewFakeCapture([]byte("audio")),
		transcriber: &testutil.FakeTranscriber{},
		generator:   &testutil.FakeGenerator{Reply: "¡Muy bien!"},
		speaker:     &testutil.FakeSynthesizer{},
		cfg: OrchestratorConfig{
			NativeLanguage: "ru",
			ListenWindow:   time.Millisecond,
			StickyFallback: true,
		},
	}
	f.deps = OrchestratorDeps{
		Scheduler:   NewScheduler(f.store, nil, testutil.NewTestLogger()),
		Generator:   f.generator,
		Transcriber: f.transcriber,
		Speaker:     f.speaker,
		Capture:     f.capture,
	}
	return f
}

func (f *callFixture) orchestrator() *Orchestrator {
	return NewOrchestrator(f.deps, f.cfg, testutil.NewTestLogger())
}

// transitionLog records state changes
type transitionLog struct {
	mu  sync.Mutex
	tos []domain.CallState
}

func (l *transitionLog) record(_, to domain.CallState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tos = append(l.tos, to)
}

func (l *transitionLog) states() []domain.CallState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.CallState(nil), l.tos...)
}

// syncSubmitter runs submitted jobs at once
type syncSubmitter struct{}

func (syncSubmitter) Submit(_ string, fn func() error) error {
	return fn()
}

func spokenCount(s *testutil.FakeSynthesizer, n int) func() bool {
	return func() bool { return len(s.Spoken()) >= n }
}

func TestOrchestrator_HappyPath(t *testing.T) {
	f := newCallFixture()
	f.transcriber.Script = []string{"hola como estas"}
	o := f.orchestrator()
	defer o.EndConversation()

	contact := *testutil.NewTestContact(1, "Lucía", "es")
	id, err := o.StartConversation(contact, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Eventually(t, func() bool { return len(o.Session().History) == 2 }, waitFor, tick)
	require.Eventually(t, spokenCount(f.speaker, 2), waitFor, tick)

	session := o.Session()
	assert.True(t, session.Active)
	assert.Equal(t, id, session.ID)
	assert.Equal(t, domain.Turn{Speaker: domain.SpeakerUser, Text: "hola como estas", At: session.History[0].At}, session.History[0])
	assert.Equal(t, domain.SpeakerAI, session.History[1].Speaker)
	assert.Equal(t, "¡Muy bien!", session.History[1].Text)

	for _, w := range []string{"hola", "como", "estas"} {
		record, _ := f.store.Find(w, "es")
		require.NotNil(t, record, w)
		assert.Equal(t, domain.Struggling(3), record.Status, w)
	}

	calls := f.generator.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "es", calls[0].Language)
	assert.Equal(t, "es", calls[1].Language)
	assert.Contains(t, calls[1].Prompt, "Learner: hola como estas")

	spoken := f.speaker.Spoken()
	assert.Equal(t, testutil.SpokenLine{Text: "¡Muy bien!", Language: "es"}, spoken[0])
	assert.Equal(t, testutil.SpokenLine{Text: "¡Muy bien!", Language: "es"}, spoken[1])
}

func TestOrchestrator_TransitionOrder(t *testing.T) {
	f := newCallFixture()
	f.transcriber.Default = "hola"
	o := f.orchestrator()

	log := &transitionLog{}
	o.OnTransition(log.record)

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(log.states()) >= 7 }, waitFor, tick)
	o.EndConversation()

	states := log.states()
	assert.Equal(t, []domain.CallState{
		domain.CallRinging,
		domain.CallSpeakingIntro,
		domain.CallListening,
		domain.CallInterpreting,
		domain.CallSpeakingResponse,
		domain.CallListening,
		domain.CallInterpreting,
	}, states[:7])
	assert.Equal(t, domain.CallEnded, states[len(states)-1])
}

func TestOrchestrator_EscalatesAfterTwoEmptyTranscripts(t *testing.T) {
	f := newCallFixture()
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 3), waitFor, tick)

	spoken := f.speaker.Spoken()
	assert.Equal(t, "es", spoken[0].Language, "intro")
	assert.Equal(t, testutil.SpokenLine{Text: clarification("es"), Language: "es"}, spoken[1])
	assert.Equal(t, testutil.SpokenLine{Text: clarification("ru"), Language: "ru"}, spoken[2])
	assert.GreaterOrEqual(t, o.Session().ConsecutiveFailures, 2)
	assert.Empty(t, o.Session().History)
}

func TestOrchestrator_LearnerNativeLanguageOverridesDefault(t *testing.T) {
	f := newCallFixture()
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "de")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 3), waitFor, tick)

	assert.Equal(t, "de", f.speaker.Spoken()[2].Language)
}

func TestOrchestrator_SuccessAfterEscalation(t *testing.T) {
	tests := []struct {
		name             string
		sticky           bool
		expectedLanguage string
	}{
		{name: "sticky fallback stays native", sticky: true, expectedLanguage: "ru"},
		{name: "non-sticky fallback returns to target", sticky: false, expectedLanguage: "es"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCallFixture()
			f.cfg.StickyFallback = tt.sticky
			f.transcriber.Script = []string{"", "", "hola amigo", ""}
			o := f.orchestrator()
			defer o.EndConversation()

			_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
			require.NoError(t, err)
			require.Eventually(t, spokenCount(f.speaker, 5), waitFor, tick)

			spoken := f.speaker.Spoken()
			// intro, clarification, escalated clarification, reply, next clarification
			assert.Equal(t, "ru", spoken[2].Language)
			assert.Equal(t, testutil.SpokenLine{Text: "¡Muy bien!", Language: "ru"}, spoken[3])
			assert.Equal(t, tt.expectedLanguage, spoken[4].Language)
		})
	}
}

func TestOrchestrator_IntroFallsBackToGreeting(t *testing.T) {
	f := newCallFixture()
	f.generator.Err = errors.New("no network")
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 1), waitFor, tick)

	assert.Equal(t, testutil.SpokenLine{Text: greeting("es"), Language: "es"}, f.speaker.Spoken()[0])
	assert.True(t, o.Active())
}

func TestOrchestrator_GenerationFailureIsMisunderstanding(t *testing.T) {
	f := newCallFixture()
	f.transcriber.Default = "hola"
	f.generator.Respond = func(prompt, language string) (string, error) {
		if strings.Contains(prompt, "Learner:") {
			return "", errors.New("model unavailable")
		}
		return "¿Diga?", nil
	}
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 3), waitFor, tick)

	spoken := f.speaker.Spoken()
	assert.Equal(t, "¿Diga?", spoken[0].Text)
	assert.Equal(t, testutil.SpokenLine{Text: clarification("es"), Language: "es"}, spoken[1])
	assert.Equal(t, testutil.SpokenLine{Text: clarification("ru"), Language: "ru"}, spoken[2])
	assert.Empty(t, o.Session().History)

	// The utterance was still scheduled.
	record, _ := f.store.Find("hola", "es")
	assert.NotNil(t, record)
}

func TestOrchestrator_CaptureFailureIsMisunderstanding(t *testing.T) {
	f := newCallFixture()
	f.capture.StartErr = errors.New("microphone busy")
	f.transcriber.Default = "hola"
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 3), waitFor, tick)

	assert.Equal(t, "ru", f.speaker.Spoken()[2].Language)
	assert.Equal(t, 0, f.transcriber.Calls())
}

func TestOrchestrator_TranscriptionErrorIsMisunderstanding(t *testing.T) {
	f := newCallFixture()
	f.transcriber.Err = errors.New("whisper down")
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 2), waitFor, tick)

	assert.Equal(t, clarification("es"), f.speaker.Spoken()[1].Text)
	assert.True(t, o.Active())
}

func TestOrchestrator_EndWhileListening(t *testing.T) {
	f := newCallFixture()
	f.cfg.ListenWindow = time.Hour
	o := f.orchestrator()

	log := &transitionLog{}
	o.OnTransition(log.record)

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)

	select {
	case <-f.capture.Started:
	case <-time.After(waitFor):
		t.Fatal("capture never started")
	}
	assert.Equal(t, domain.CallListening, o.State())

	o.EndConversation()

	assert.False(t, o.Active())
	assert.False(t, o.Session().Active)
	assert.Equal(t, domain.CallEnded, o.State())
	assert.Equal(t, 0, f.capture.Open(), "microphone released")
	starts, stops := f.capture.Counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
	assert.GreaterOrEqual(t, f.speaker.Stops(), 1)

	after := len(log.states())
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, log.states(), after, "no transitions after hang up")
	assert.Equal(t, domain.CallEnded, log.states()[after-1])
	assert.Equal(t, 0, f.transcriber.Calls(), "partial audio discarded")
}

func TestOrchestrator_EndWhileSpeaking(t *testing.T) {
	f := newCallFixture()
	f.speaker.Block = true
	o := f.orchestrator()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 1), waitFor, tick)

	o.EndConversation()

	assert.False(t, o.Active())
	starts, _ := f.capture.Counts()
	assert.Equal(t, 0, starts)
}

func TestOrchestrator_EndWithoutCall(t *testing.T) {
	f := newCallFixture()
	o := f.orchestrator()

	assert.NotPanics(t, func() {
		o.EndConversation()
		o.EndConversation()
	})
	assert.Equal(t, domain.CallIdle, o.State())
	assert.False(t, o.Active())
}

func TestOrchestrator_StartReplacesActiveCall(t *testing.T) {
	f := newCallFixture()
	f.cfg.ListenWindow = time.Hour
	o := f.orchestrator()
	defer o.EndConversation()

	first, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	<-f.capture.Started

	second, err := o.StartConversation(*testutil.NewTestContact(2, "Yuki", "ja"), "")
	require.NoError(t, err)
	<-f.capture.Started

	assert.NotEqual(t, first, second)
	session := o.Session()
	assert.Equal(t, second, session.ID)
	assert.Equal(t, "Yuki", session.Contact.Name)
	assert.True(t, session.Active)
	assert.Equal(t, 1, f.capture.Open(), "only the new call holds the microphone")
}

func TestOrchestrator_StartRequiresLanguage(t *testing.T) {
	f := newCallFixture()
	o := f.orchestrator()

	_, err := o.StartConversation(domain.Contact{ID: 1, Name: "Nobody"}, "")

	assert.Error(t, err)
	assert.False(t, o.Active())
}

func TestOrchestrator_TouchesContact(t *testing.T) {
	f := newCallFixture()
	contacts := new(testutil.MockContactRepository)
	contacts.On("TouchLastCall", int64(1), mock.AnythingOfType("time.Time")).Return(errors.New("db down"))
	f.deps.Contacts = contacts
	f.deps.Queue = syncSubmitter{}
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 2), waitFor, tick)

	// A failed write does not affect the call.
	assert.True(t, o.Active())
	contacts.AssertExpectations(t)
}

func TestOrchestrator_HistoryIsBounded(t *testing.T) {
	f := newCallFixture()
	f.cfg.HistoryWindow = 4
	f.transcriber.Default = "hola"
	o := f.orchestrator()
	defer o.EndConversation()

	_, err := o.StartConversation(*testutil.NewTestContact(1, "Lucía", "es"), "")
	require.NoError(t, err)
	require.Eventually(t, spokenCount(f.speaker, 6), waitFor, tick)

	assert.LessOrEqual(t, len(o.Session().History), 4)
}

func newUnitOrchestrator(deps OrchestratorDeps) (*Orchestrator, *activeCall) {
	o := NewOrchestrator(deps, OrchestratorConfig{ListenWindow: time.Millisecond, NativeLanguage: "ru"}, testutil.NewTestLogger())
	c := &activeCall{
		session: &domain.Session{ID: "s1", Contact: *testutil.NewTestContact(1, "Lucía", "es"), NativeLanguage: "ru", Active: true},
		policy:  NewFallbackPolicy(0, true),
		done:    make(chan struct{}),
	}
	o.call = c
	return o, c
}

func TestOrchestrator_Introduce(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		expected string
	}{
		{name: "generated line is trimmed", reply: "  ¡Hola, qué sorpresa!\n", expected: "¡Hola, qué sorpresa!"},
		{name: "blank line uses greeting", reply: "   ", expected: greeting("es")},
		{name: "failure uses greeting", err: errors.New("timeout"), expected: greeting("es")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := new(testutil.MockTextGenerator)
			generator.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
				return strings.Contains(prompt, "You are Lucía.") && strings.Contains(prompt, "first time")
			}), "es").Return(tt.reply, tt.err)

			o, c := newUnitOrchestrator(OrchestratorDeps{Generator: generator})

			assert.Equal(t, tt.expected, o.introduce(context.Background(), c.session.Contact))
			generator.AssertExpectations(t)
		})
	}
}

func TestOrchestrator_SpeakStopsPreviousSpeech(t *testing.T) {
	speaker := new(testutil.MockSynthesizer)
	speaker.On("StopImmediately").Return()
	speaker.On("Speak", mock.Anything, "¡Hola!", "es").Return(errors.New("chat blocked"))

	o, _ := newUnitOrchestrator(OrchestratorDeps{Speaker: speaker})
	o.speak(context.Background(), "¡Hola!", "es")

	speaker.AssertExpectations(t)
	require.Len(t, speaker.Calls, 2)
	assert.Equal(t, "StopImmediately", speaker.Calls[0].Method)
	assert.Equal(t, "Speak", speaker.Calls[1].Method)
}

func TestOrchestrator_SpeakSkipsWhenCancelled(t *testing.T) {
	speaker := new(testutil.MockSynthesizer)
	o, _ := newUnitOrchestrator(OrchestratorDeps{Speaker: speaker})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.speak(ctx, "¡Hola!", "es")

	speaker.AssertNotCalled(t, "Speak", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_Listen(t *testing.T) {
	capture := new(testutil.MockAudioCapture)
	capture.On("Start", mock.Anything).Return(engine.CaptureHandle("h1"), nil)
	capture.On("Stop", engine.CaptureHandle("h1")).Return([]byte("audio"), nil)

	o, c := newUnitOrchestrator(OrchestratorDeps{Capture: capture})

	audio, err := o.listen(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), audio)
	assert.False(t, c.capturing)
	capture.AssertExpectations(t)
}

func TestOrchestrator_ListenAfterHangUp(t *testing.T) {
	capture := new(testutil.MockAudioCapture)
	capture.On("Start", mock.Anything).Return(engine.CaptureHandle("h1"), nil)
	capture.On("Stop", engine.CaptureHandle("h1")).Return([]byte("partial"), nil)

	o, c := newUnitOrchestrator(OrchestratorDeps{Capture: capture})
	o.call = nil

	audio, err := o.listen(context.Background(), c)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, audio, "partial audio is discarded")
	capture.AssertNumberOfCalls(t, "Stop", 1)
}

func TestOrchestrator_Transcribe(t *testing.T) {
	captureErr := errors.New("microphone busy")

	tests := []struct {
		name        string
		audio       []byte
		captureErr  error
		mockText    string
		mockErr     error
		expectCall  bool
		expected    string
		expectedErr error
	}{
		{name: "trimmed transcript", audio: []byte("a"), mockText: "  hola  ", expectCall: true, expected: "hola"},
		{name: "blank transcript", audio: []byte("a"), mockText: " \n", expectCall: true, expectedErr: engine.ErrEmptyTranscript},
		{name: "no audio", expectedErr: engine.ErrNoAudio},
		{name: "capture failed", captureErr: captureErr, expectedErr: captureErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcriber := new(testutil.MockTranscriber)
			if tt.expectCall {
				transcriber.On("Transcribe", mock.Anything, tt.audio).Return(tt.mockText, tt.mockErr)
			}
			o, _ := newUnitOrchestrator(OrchestratorDeps{Transcriber: transcriber})

			text, err := o.transcribe(context.Background(), tt.audio, tt.captureErr)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, text)
			}
			transcriber.AssertExpectations(t)
		})
	}
}
