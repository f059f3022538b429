package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/engine"
	"lingocall/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultListenWindow  = 8 * time.Second
	DefaultHistoryWindow = 20
)

// Submitter accepts fire-and-forget writes
type Submitter interface {
	Submit(name string, fn func() error) error
}

// OrchestratorConfig tunes a call
type OrchestratorConfig struct {
	NativeLanguage    string
	ListenWindow      time.Duration
	HistoryWindow     int
	FallbackThreshold int
	StickyFallback    bool
}

// OrchestratorDeps are the services a call is driven through.
// Contacts and Queue are optional.
type OrchestratorDeps struct {
	Scheduler   *Scheduler
	Generator   engine.TextGenerator
	Transcriber engine.Transcriber
	Speaker     engine.Synthesizer
	Capture     engine.AudioCapture
	Contacts    repository.ContactRepository
	Queue       Submitter
}

// activeCall is everything owned by one running call
type activeCall struct {
	session *domain.Session
	policy  *FallbackPolicy
	cancel  context.CancelFunc
	done    chan struct{}

	// open capture, guarded by Orchestrator.mu
	capture   engine.CaptureHandle
	capturing bool
}

// Orchestrator runs at most one call at a time as a loop of
// speak -> listen -> interpret -> respond.
type Orchestrator struct {
	deps   OrchestratorDeps
	cfg    OrchestratorConfig
	logger *zap.Logger
	now    func() time.Time

	lifecycle sync.Mutex // serializes StartConversation and EndConversation
	speech    sync.Mutex // one utterance at a time

	mu           sync.Mutex
	state        domain.CallState
	call         *activeCall
	onTransition func(from, to domain.CallState)
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if cfg.ListenWindow <= 0 {
		cfg.ListenWindow = DefaultListenWindow
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.FallbackThreshold <= 0 {
		cfg.FallbackThreshold = DefaultFallbackThreshold
	}
	if cfg.NativeLanguage == "" {
		cfg.NativeLanguage = "en"
	}

	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  domain.CallIdle,
	}
}

// OnTransition registers fn to observe state changes. fn runs with the
// orchestrator locked and must not call back into it.
func (o *Orchestrator) OnTransition(fn func(from, to domain.CallState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onTransition = fn
}

// State returns the current call state
func (o *Orchestrator) State() domain.CallState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Active reports whether a call is in progress
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.call != nil
}

// Session returns a copy of the active session, or an inactive zero session
func (o *Orchestrator) Session() domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.call == nil {
		return domain.Session{}
	}
	return o.call.session.Snapshot()
}

// StartConversation calls contact, hanging up any call in progress first.
// An empty nativeLanguage uses the configured one.
func (o *Orchestrator) StartConversation(contact domain.Contact, nativeLanguage string) (string, error) {
	if contact.Language == "" {
		return "", fmt.Errorf("contact %q has no language", contact.Name)
	}
	if nativeLanguage == "" {
		nativeLanguage = o.cfg.NativeLanguage
	}

	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.end()

	ctx, cancel := context.WithCancel(context.Background())
	c := &activeCall{
		session: &domain.Session{
			ID:             uuid.NewString(),
			Contact:        contact,
			NativeLanguage: nativeLanguage,
			Active:         true,
			StartedAt:      o.now(),
		},
		policy: NewFallbackPolicy(o.cfg.FallbackThreshold, o.cfg.StickyFallback),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	o.mu.Lock()
	o.call = c
	o.setState(domain.CallRinging)
	o.mu.Unlock()

	o.logger.Info("Call started",
		zap.String("session_id", c.session.ID),
		zap.Int64("contact_id", contact.ID),
		zap.String("language", contact.Language),
		zap.String("native_language", nativeLanguage),
	)

	go o.run(ctx, c)

	return c.session.ID, nil
}

// EndConversation hangs up. It is safe to call from any goroutine at any
// time, and does nothing when no call is active. When it returns the
// microphone is released, speech is stopped and the call loop has exited.
func (o *Orchestrator) EndConversation() {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.end()
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	c := o.call
	if c == nil {
		o.mu.Unlock()
		return
	}
	o.call = nil
	handle, capturing := c.capture, c.capturing
	c.capture, c.capturing = "", false
	c.session.Active = false
	o.setState(domain.CallEnded)
	o.mu.Unlock()

	if capturing {
		// Partial audio is discarded.
		if _, err := o.deps.Capture.Stop(handle); err != nil {
			o.logger.Warn("Failed to stop capture on hang up", zap.Error(err))
		}
	}
	c.cancel()
	o.deps.Speaker.StopImmediately()
	<-c.done

	o.logger.Info("Call ended",
		zap.String("session_id", c.session.ID),
		zap.Int("turns", len(c.session.History)),
	)
}

// transition moves c to state to, unless c has been hung up
func (o *Orchestrator) transition(c *activeCall, to domain.CallState) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.call != c {
		return false
	}
	o.setState(to)
	return true
}

// setState must be called with mu held
func (o *Orchestrator) setState(to domain.CallState) {
	from := o.state
	o.state = to
	if o.onTransition != nil {
		o.onTransition(from, to)
	}
}

func (o *Orchestrator) run(ctx context.Context, c *activeCall) {
	defer close(c.done)

	contact := c.session.Contact

	intro := o.introduce(ctx, contact)
	if ctx.Err() != nil || !o.transition(c, domain.CallSpeakingIntro) {
		return
	}
	o.speak(ctx, intro, contact.Language)

	for {
		if ctx.Err() != nil || !o.transition(c, domain.CallListening) {
			return
		}
		audio, captureErr := o.listen(ctx, c)

		if ctx.Err() != nil || !o.transition(c, domain.CallInterpreting) {
			return
		}
		reply, language := o.interpret(ctx, c, audio, captureErr)

		if ctx.Err() != nil || !o.transition(c, domain.CallSpeakingResponse) {
			return
		}
		o.speak(ctx, reply, language)
	}
}

// introduce produces the opening line, falling back to a fixed greeting
func (o *Orchestrator) introduce(ctx context.Context, contact domain.Contact) string {
	now := o.now()
	text, err := o.deps.Generator.Generate(ctx, introPrompt(contact, now), contact.Language)
	o.touchContact(contact, now)

	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty intro")
	}
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Warn("Failed to generate intro, using greeting",
				zap.Int64("contact_id", contact.ID),
				zap.Error(err),
			)
		}
		return greeting(contact.Language)
	}
	return strings.TrimSpace(text)
}

func (o *Orchestrator) touchContact(contact domain.Contact, at time.Time) {
	if o.deps.Contacts == nil || o.deps.Queue == nil || contact.ID == 0 {
		return
	}

	err := o.deps.Queue.Submit("touch contact", func() error {
		return o.deps.Contacts.TouchLastCall(contact.ID, at)
	})
	if err != nil {
		o.logger.Warn("Failed to queue contact update", zap.Int64("contact_id", contact.ID), zap.Error(err))
	}
}

// listen records for the listen window. The window runs even when the
// microphone cannot be opened so a broken capture does not spin the loop.
func (o *Orchestrator) listen(ctx context.Context, c *activeCall) ([]byte, error) {
	handle, startErr := o.deps.Capture.Start(ctx)
	if startErr == nil && !o.holdCapture(c, handle) {
		// Hung up while the microphone was opening.
		_, _ = o.deps.Capture.Stop(handle)
		return nil, context.Canceled
	}

	timer := time.NewTimer(o.cfg.ListenWindow)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		_, _ = o.releaseCapture(c)
		return nil, ctx.Err()
	case <-timer.C:
	}

	if startErr != nil {
		return nil, fmt.Errorf("failed to start capture: %w", startErr)
	}
	return o.releaseCapture(c)
}

func (o *Orchestrator) holdCapture(c *activeCall, handle engine.CaptureHandle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.call != c {
		return false
	}
	c.capture, c.capturing = handle, true
	return true
}

// releaseCapture stops the open capture unless a hang up already did
func (o *Orchestrator) releaseCapture(c *activeCall) ([]byte, error) {
	o.mu.Lock()
	handle, capturing := c.capture, c.capturing
	c.capture, c.capturing = "", false
	o.mu.Unlock()

	if !capturing {
		return nil, engine.ErrNoAudio
	}
	audio, err := o.deps.Capture.Stop(handle)
	if err != nil {
		return nil, fmt.Errorf("failed to stop capture: %w", err)
	}
	return audio, nil
}

// interpret turns captured audio into the next line to speak and its language
func (o *Orchestrator) interpret(ctx context.Context, c *activeCall, audio []byte, captureErr error) (string, string) {
	contact := c.session.Contact

	transcript, err := o.transcribe(ctx, audio, captureErr)
	if ctx.Err() != nil {
		return "", ""
	}
	if err != nil {
		return o.misunderstood(c, err)
	}

	statuses := o.deps.Scheduler.ProcessUtterance(transcript, contact.Language)

	o.mu.Lock()
	language := contact.Language
	if c.policy.Escalated() {
		language = c.session.NativeLanguage
	}
	history := append([]domain.Turn(nil), c.session.History...)
	o.mu.Unlock()

	reply, err := o.deps.Generator.Generate(ctx, replyPrompt(contact, history, transcript, language), language)
	if ctx.Err() != nil {
		return "", ""
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		return o.misunderstood(c, fmt.Errorf("failed to generate reply: %w", err))
	}
	reply = strings.TrimSpace(reply)

	now := o.now()
	o.mu.Lock()
	c.policy.OnSuccess()
	c.session.ConsecutiveFailures = c.policy.Failures()
	c.session.Append(domain.Turn{Speaker: domain.SpeakerUser, Text: transcript, At: now}, o.cfg.HistoryWindow)
	c.session.Append(domain.Turn{Speaker: domain.SpeakerAI, Text: reply, At: now}, o.cfg.HistoryWindow)
	o.mu.Unlock()

	o.logger.Info("Turn completed",
		zap.String("session_id", c.session.ID),
		zap.Int("words", len(statuses)),
		zap.String("reply_language", language),
	)
	return reply, language
}

func (o *Orchestrator) transcribe(ctx context.Context, audio []byte, captureErr error) (string, error) {
	if captureErr != nil {
		return "", captureErr
	}
	if len(audio) == 0 {
		return "", engine.ErrNoAudio
	}

	text, err := o.deps.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", engine.ErrEmptyTranscript
	}
	return text, nil
}

// misunderstood records a failed turn and picks the clarification to speak
func (o *Orchestrator) misunderstood(c *activeCall, cause error) (string, string) {
	o.mu.Lock()
	escalate := c.policy.OnFailure()
	failures := c.policy.Failures()
	c.session.ConsecutiveFailures = failures
	o.mu.Unlock()

	language := c.session.Contact.Language
	if escalate {
		language = c.session.NativeLanguage
	}

	o.logger.Info("Learner not understood",
		zap.String("session_id", c.session.ID),
		zap.Int("consecutive_failures", failures),
		zap.Bool("fallback", escalate),
		zap.NamedError("cause", cause),
	)
	return clarification(language), language
}

// speak stops whatever is playing and says text
func (o *Orchestrator) speak(ctx context.Context, text, language string) {
	o.speech.Lock()
	defer o.speech.Unlock()

	if ctx.Err() != nil {
		return
	}
	o.deps.Speaker.StopImmediately()
	if err := o.deps.Speaker.Speak(ctx, text, language); err != nil && ctx.Err() == nil {
		o.logger.Warn("Failed to speak", zap.String("language", language), zap.Error(err))
	}
}
