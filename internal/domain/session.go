package domain

import "time"

// CallState represents the phase of the active call
type CallState string

const (
	CallIdle             CallState = "idle"
	CallRinging          CallState = "ringing"
	CallSpeakingIntro    CallState = "speaking_intro"
	CallListening        CallState = "listening"
	CallInterpreting     CallState = "interpreting"
	CallSpeakingResponse CallState = "speaking_response"
	CallEnded            CallState = "ended"
)

// Speaker identifies who said a line of the conversation
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// Contact is a practice partner the learner can call
type Contact struct {
	ID         int64
	Name       string
	Language   string
	Persona    string
	LastCallAt *time.Time
}

// Turn is one line of conversation history
type Turn struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Session holds the state of one call
type Session struct {
	ID                  string
	Contact             Contact
	NativeLanguage      string
	Active              bool
	ConsecutiveFailures int
	StartedAt           time.Time
	History             []Turn
}

// Append adds a turn to the history, dropping the oldest turns beyond window.
// A window <= 0 keeps everything.
func (s *Session) Append(turn Turn, window int) {
	s.History = append(s.History, turn)
	if window > 0 && len(s.History) > window {
		s.History = append([]Turn(nil), s.History[len(s.History)-window:]...)
	}
}

// Snapshot returns a copy that shares no memory with s
func (s *Session) Snapshot() Session {
	cp := *s
	cp.History = append([]Turn(nil), s.History...)
	return cp
}
