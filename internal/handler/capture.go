package handler

import (
	"context"
	"fmt"
	"sync"

	"lingocall/internal/engine"
)

// VoiceCapture implements engine.AudioCapture over Telegram voice notes.
// Each note is a complete OGG/Opus file, so an open capture keeps only the
// most recent one.
type VoiceCapture struct {
	mu   sync.Mutex
	seq  int
	open map[engine.CaptureHandle][]byte
}

// NewVoiceCapture creates a capture with nothing open
func NewVoiceCapture() *VoiceCapture {
	return &VoiceCapture{open: make(map[engine.CaptureHandle][]byte)}
}

func (v *VoiceCapture) Start(ctx context.Context) (engine.CaptureHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	handle := engine.CaptureHandle(fmt.Sprintf("voice-%d", v.seq))
	v.open[handle] = nil
	return handle, nil
}

func (v *VoiceCapture) Stop(handle engine.CaptureHandle) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	audio, ok := v.open[handle]
	if !ok {
		return nil, fmt.Errorf("capture %s is not open", handle)
	}
	delete(v.open, handle)
	return audio, nil
}

// Feed hands a voice note to every open capture, replacing any earlier
// note, and reports whether anyone was listening.
func (v *VoiceCapture) Feed(audio []byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for handle := range v.open {
		v.open[handle] = append([]byte(nil), audio...)
	}
	return len(v.open) > 0
}

// Listening reports whether a capture is open
func (v *VoiceCapture) Listening() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.open) > 0
}
