package testutil

import (
	"context"
	"fmt"
	"sync"

	"lingocall/internal/engine"
)

// FakeCapture is an in-memory engine.AudioCapture for call loop tests
type FakeCapture struct {
	mu       sync.Mutex
	Audio    []byte
	StartErr error
	starts   int
	stops    int
	open     map[engine.CaptureHandle]bool

	// Started receives a value each time a capture opens, if there is room
	Started chan struct{}
}

// NewFakeCapture creates a capture returning audio on every Stop
func NewFakeCapture(audio []byte) *FakeCapture {
	return &FakeCapture{
		Audio:   audio,
		open:    make(map[engine.CaptureHandle]bool),
		Started: make(chan struct{}, 16),
	}
}

func (c *FakeCapture) Start(ctx context.Context) (engine.CaptureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.starts++
	if c.StartErr != nil {
		return "", c.StartErr
	}
	h := engine.CaptureHandle(fmt.Sprintf("capture-%d", c.starts))
	c.open[h] = true

	select {
	case c.Started <- struct{}{}:
	default:
	}
	return h, nil
}

func (c *FakeCapture) Stop(handle engine.CaptureHandle) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open[handle] {
		return nil, fmt.Errorf("capture %s not open", handle)
	}
	delete(c.open, handle)
	c.stops++
	return c.Audio, nil
}

// Counts returns how many captures were started and stopped
func (c *FakeCapture) Counts() (starts, stops int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops
}

// Open returns the number of captures not yet stopped
func (c *FakeCapture) Open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open)
}

// FakeTranscriber returns scripted transcripts in order, then Default
type FakeTranscriber struct {
	mu      sync.Mutex
	Script  []string
	Default string
	Err     error
	calls   int
}

func (t *FakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	if t.Err != nil {
		return "", t.Err
	}
	if len(t.Script) > 0 {
		next := t.Script[0]
		t.Script = t.Script[1:]
		return next, nil
	}
	return t.Default, nil
}

// Calls returns the number of Transcribe calls
func (t *FakeTranscriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// GenerateCall records one Generate request
type GenerateCall struct {
	Prompt   string
	Language string
}

// FakeGenerator answers with Reply, or with Respond when set
type FakeGenerator struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Respond func(prompt, language string) (string, error)
	calls   []GenerateCall
}

func (g *FakeGenerator) Generate(ctx context.Context, prompt, language string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, GenerateCall{Prompt: prompt, Language: language})
	respond := g.Respond
	g.mu.Unlock()

	if respond != nil {
		return respond(prompt, language)
	}
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Calls returns a copy of all Generate requests
func (g *FakeGenerator) Calls() []GenerateCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GenerateCall(nil), g.calls...)
}

// SpokenLine records one Speak request
type SpokenLine struct {
	Text     string
	Language string
}

// FakeSynthesizer records what was spoken. With Block set, Speak waits for
// StopImmediately or context cancellation.
type FakeSynthesizer struct {
	mu     sync.Mutex
	Block  bool
	Err    error
	spoken []SpokenLine
	stops  int
	stopCh chan struct{}
}

func (s *FakeSynthesizer) Speak(ctx context.Context, text, language string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, SpokenLine{Text: text, Language: language})
	block := s.Block
	if s.stopCh == nil {
		s.stopCh = make(chan struct{})
	}
	stopCh := s.stopCh
	err := s.Err
	s.mu.Unlock()

	if block {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		}
	}
	return err
}

func (s *FakeSynthesizer) StopImmediately() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stops++
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Spoken returns a copy of everything spoken so far
func (s *FakeSynthesizer) Spoken() []SpokenLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpokenLine(nil), s.spoken...)
}

// Stops returns how many times StopImmediately was called
func (s *FakeSynthesizer) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}
