package handler

import (
	"context"
	"errors"
	"sync"

	tele "gopkg.in/telebot.v3"
)

// Sender delivers messages; *tele.Bot satisfies it
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

var errNoChat = errors.New("no chat bound to the call")

// ChatSpeaker implements engine.Synthesizer by writing the contact's lines
// into the learner's chat.
type ChatSpeaker struct {
	sender Sender

	mu   sync.Mutex
	chat tele.Recipient
}

// NewChatSpeaker creates a speaker with no chat bound
func NewChatSpeaker(sender Sender) *ChatSpeaker {
	return &ChatSpeaker{sender: sender}
}

// Bind directs subsequent lines to chat
func (s *ChatSpeaker) Bind(chat tele.Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = chat
}

func (s *ChatSpeaker) Speak(ctx context.Context, text, language string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	chat := s.chat
	s.mu.Unlock()

	if chat == nil {
		return errNoChat
	}
	_, err := s.sender.Send(chat, "🗣 "+text)
	return err
}

// StopImmediately does nothing: a delivered message cannot be taken back
func (s *ChatSpeaker) StopImmediately() {}
