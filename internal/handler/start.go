package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command and shows the contact list
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("Learner started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure learner exists in database
	if err := h.learnerService.EnsureLearnerExists(userID); err != nil {
		h.logger.Error("Failed to ensure learner exists", zap.Error(err))
		return c.Send(msgError)
	}

	authorized, err := h.learnerService.IsAuthorized(userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	if !authorized {
		return c.Send(msgAskPassword)
	}

	return h.showContacts(c)
}

func (h *Handler) showContacts(c tele.Context) error {
	contacts, err := h.contacts.ListContacts()
	if err != nil {
		h.logger.Error("Failed to list contacts", zap.Error(err))
		return c.Send(msgError)
	}
	if len(contacts) == 0 {
		return c.Send("Список контактов пуст.")
	}

	if c.Callback() != nil {
		if err := c.Edit(msgContactsMenu, contactsMarkup(contacts)); err != nil {
			if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
				return nil
			}
			return c.Send(msgContactsMenu, contactsMarkup(contacts))
		}
		return c.Respond()
	}
	return c.Send(msgContactsMenu, contactsMarkup(contacts))
}
