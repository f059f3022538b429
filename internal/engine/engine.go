// Package engine defines the speech and language services a call depends on.
// Implementations live in subpackages and in the Telegram handler.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTranscript means the audio held no recognisable speech
	ErrEmptyTranscript = errors.New("empty transcript")
	// ErrNoAudio means capture produced no audio
	ErrNoAudio = errors.New("no audio captured")
)

// TextGenerator produces a reply for a prompt in the given language.
// Failure is expected (no network, model missing) and must be handled by the caller.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, language string) (string, error)
}

// Transcriber converts a complete audio buffer to text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer speaks text. Speak returns once the speech has finished.
type Synthesizer interface {
	Speak(ctx context.Context, text, language string) error
	StopImmediately()
}

// CaptureHandle identifies one open capture
type CaptureHandle string

// AudioCapture records audio between Start and Stop
type AudioCapture interface {
	Start(ctx context.Context) (CaptureHandle, error)
	Stop(handle CaptureHandle) ([]byte, error)
}
