package handler

import (
	"fmt"
	"io"

	"lingocall/internal/domain"
	"lingocall/internal/middleware"
	"lingocall/internal/repository"
	"lingocall/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Handler manages all bot interactions
type Handler struct {
	bot            *tele.Bot
	learnerService *service.LearnerService
	scheduler      *service.Scheduler
	orchestrator   *service.Orchestrator
	contacts       repository.ContactRepository
	capture        *VoiceCapture
	speaker        *ChatSpeaker
	logger         *zap.Logger

	// fetch downloads a voice note
	fetch func(*tele.File) (io.ReadCloser, error)
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	learnerService *service.LearnerService,
	scheduler *service.Scheduler,
	orchestrator *service.Orchestrator,
	contacts repository.ContactRepository,
	capture *VoiceCapture,
	speaker *ChatSpeaker,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:            bot,
		learnerService: learnerService,
		scheduler:      scheduler,
		orchestrator:   orchestrator,
		contacts:       contacts,
		capture:        capture,
		speaker:        speaker,
		logger:         logger,
		fetch:          bot.File,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Open to everyone: /start greets, text carries the password
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle(tele.OnText, h.handleText)

	learner := h.bot.Group()
	learner.Use(middleware.AuthMiddleware(h.learnerService, h.logger))

	learner.Handle("/hangup", h.handleHangup)
	learner.Handle("/due", h.handleDue)
	learner.Handle("/native", h.handleNative)
	learner.Handle(tele.OnVoice, h.handleVoice)

	// Callback queries (inline buttons)
	learner.Handle(&btnHangup, h.handleHangup)
	learner.Handle(&btnContacts, h.handleStart)
	learner.Handle(tele.OnCallback, h.handleCallback)
}

// Inline keyboard buttons
var (
	btnHangup = tele.Btn{
		Unique: "hangup",
		Text:   "📵 Положить трубку",
	}
	btnContacts = tele.Btn{
		Unique: "contacts",
		Text:   "📒 Контакты",
	}
)

const (
	msgError        = "Произошла ошибка. Попробуйте позже."
	msgAskPassword  = "Привет! Это телефон для практики языка. Введи пароль:"
	msgWrongPass    = "Неверный пароль"
	msgNoCall       = "Сейчас нет звонка. /start, чтобы выбрать контакт."
	msgContactsMenu = "📒 Кому позвоним?\n\nОтвечай голосовыми сообщениями. /due покажет слова на повторение, /native xx сменит родной язык."
)

// contactsMarkup returns one call button per contact
func contactsMarkup(contacts []domain.Contact) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(contacts))
	for _, c := range contacts {
		text := fmt.Sprintf("📞 %s (%s)", c.Name, c.Language)
		rows = append(rows, markup.Row(markup.Data(text, callData(c.ID))))
	}
	markup.Inline(rows...)
	return markup
}

// callMarkup is shown while a call is in progress
func callMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnHangup))
	return markup
}
