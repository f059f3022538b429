package handler

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxVoiceBytes caps a downloaded voice note
const maxVoiceBytes = 20 << 20

// handleCall dials the contact on the pressed button
func (h *Handler) handleCall(c tele.Context, data string) error {
	userID := c.Sender().ID

	contactID, err := parseContactID(data)
	if err != nil {
		h.logger.Warn("Bad call button", zap.String("data", data), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Неверная кнопка"})
	}

	contact, err := h.contacts.GetContact(contactID)
	if err != nil {
		h.logger.Error("Failed to load contact", zap.Int64("contact_id", contactID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
	}
	if contact == nil {
		return c.Respond(&tele.CallbackResponse{Text: "Контакт не найден", ShowAlert: true})
	}

	native, err := h.learnerService.NativeLanguage(userID)
	if err != nil {
		h.logger.Error("Failed to load native language", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
	}

	h.speaker.Bind(c.Chat())
	sessionID, err := h.orchestrator.StartConversation(*contact, native)
	if err != nil {
		h.logger.Error("Failed to start call", zap.Int64("contact_id", contactID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Не удалось позвонить"})
	}

	h.logger.Info("Learner called contact",
		zap.Int64("user_id", userID),
		zap.Int64("contact_id", contactID),
		zap.String("session_id", sessionID),
	)

	text := fmt.Sprintf("📞 Звоним: %s\n\nОтвечай голосовыми сообщениями.", contact.Name)
	if err := c.Edit(text, callMarkup()); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send(text, callMarkup())
	}
	return c.Respond()
}

// handleHangup ends the active call
func (h *Handler) handleHangup(c tele.Context) error {
	if !h.orchestrator.Active() {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Звонка нет"})
		}
		return c.Send(msgNoCall)
	}

	session := h.orchestrator.Session()
	h.orchestrator.EndConversation()

	h.logger.Info("Learner hung up",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("session_id", session.ID),
	)

	text := fmt.Sprintf("📵 Звонок с %s завершён. Реплик: %d.", session.Contact.Name, len(session.History)/2)
	if c.Callback() != nil {
		c.Respond()
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnContacts))
	return c.Send(text, markup)
}

// handleVoice feeds a voice note into the open capture
func (h *Handler) handleVoice(c tele.Context) error {
	voice := c.Message().Voice
	if voice == nil {
		return nil
	}
	if !h.orchestrator.Active() {
		return c.Send(msgNoCall)
	}

	rc, err := h.fetch(&voice.File)
	if err != nil {
		h.logger.Error("Failed to download voice note", zap.Error(err))
		return c.Send("Не удалось получить голосовое сообщение.")
	}
	defer rc.Close()

	audio, err := io.ReadAll(io.LimitReader(rc, maxVoiceBytes))
	if err != nil {
		h.logger.Error("Failed to read voice note", zap.Error(err))
		return c.Send("Не удалось получить голосовое сообщение.")
	}

	if !h.capture.Feed(audio) {
		return c.Send("⏳ Собеседник ещё говорит, повтори через секунду.")
	}

	h.logger.Debug("Voice note captured",
		zap.Int64("user_id", c.Sender().ID),
		zap.Int("bytes", len(audio)),
	)
	return nil
}
