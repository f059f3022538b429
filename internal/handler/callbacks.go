package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const callPrefix = "call_"

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

func callData(contactID int64) string {
	return callPrefix + strconv.FormatInt(contactID, 10)
}

// parseContactID extracts the contact id from "call_<id>"
func parseContactID(data string) (int64, error) {
	if !strings.HasPrefix(data, callPrefix) {
		return 0, fmt.Errorf("not a call button: %q", data)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, callPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact id in %q", data)
	}
	return id, nil
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Already edited by another callback
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles callback queries without a dedicated handler
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("Processing callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch callback.Unique {
	case btnHangup.Unique:
		return h.handleHangup(c)
	case btnContacts.Unique:
		return h.showContacts(c)
	}

	switch {
	case data == btnHangup.Unique:
		return h.handleHangup(c)
	case data == btnContacts.Unique:
		return h.showContacts(c)
	case strings.HasPrefix(data, callPrefix):
		return h.handleCall(c, data)
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}
