package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lingocall/internal/engine"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxDueShown limits the words listed per language
const maxDueShown = 30

// handleText handles passwords and stray text
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	if err := h.learnerService.EnsureLearnerExists(userID); err != nil {
		h.logger.Error("Failed to ensure learner exists", zap.Error(err))
		return nil
	}

	authorized, err := h.learnerService.IsAuthorized(userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	if !authorized {
		if !h.learnerService.CheckPassword(text) {
			return c.Send(msgWrongPass)
		}
		if err := h.learnerService.AuthorizeLearner(userID); err != nil {
			h.logger.Error("Failed to authorize learner", zap.Error(err))
			return c.Send(msgError)
		}

		h.logger.Info("Learner authorized", zap.Int64("user_id", userID))
		c.Send("✅ Доступ разрешён!")
		return h.showContacts(c)
	}

	if h.orchestrator.Active() {
		return c.Send("🎙 Во время звонка отвечай голосом.", callMarkup())
	}
	return h.showContacts(c)
}

// handleNative sets the language the contacts fall back to
func (h *Handler) handleNative(c tele.Context) error {
	userID := c.Sender().ID

	args := c.Args()
	if len(args) == 0 {
		learner, err := h.learnerService.Learner(userID)
		if err != nil {
			h.logger.Error("Failed to load learner", zap.Error(err))
			return c.Send(msgError)
		}
		return c.Send(fmt.Sprintf("Родной язык: %s. Сменить: /native de", engine.LanguageName(learner.NativeLanguage)))
	}

	code, err := h.learnerService.SetNativeLanguage(userID, args[0])
	if err != nil {
		h.logger.Info("Rejected native language", zap.Int64("user_id", userID), zap.Error(err))
		return c.Send("Не знаю такой язык. Пример: /native ru")
	}

	h.logger.Info("Native language changed", zap.Int64("user_id", userID), zap.String("language", code))
	return c.Send(fmt.Sprintf("✅ Родной язык: %s. Он пригодится, если собеседник тебя не поймёт.", engine.LanguageName(code)))
}

// dueList is the due words of one language
type dueList struct {
	Language string
	Words    []string
}

// handleDue lists words due for review, for one language or every
// language a contact speaks
func (h *Handler) handleDue(c tele.Context) error {
	languages := c.Args()
	if len(languages) == 0 {
		var err error
		if languages, err = h.contactLanguages(); err != nil {
			h.logger.Error("Failed to list contacts", zap.Error(err))
			return c.Send(msgError)
		}
	}

	now := time.Now()
	lists := make([]dueList, 0, len(languages))
	for _, language := range languages {
		words, err := h.scheduler.DueWords(strings.ToLower(language), now)
		if err != nil {
			h.logger.Error("Failed to load due words", zap.String("language", language), zap.Error(err))
			return c.Send(msgError)
		}
		lists = append(lists, dueList{Language: strings.ToLower(language), Words: words})
	}

	return c.Send(formatDue(lists))
}

func (h *Handler) contactLanguages() ([]string, error) {
	contacts, err := h.contacts.ListContacts()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var languages []string
	for _, contact := range contacts {
		if !seen[contact.Language] {
			seen[contact.Language] = true
			languages = append(languages, contact.Language)
		}
	}
	sort.Strings(languages)
	return languages, nil
}

func formatDue(lists []dueList) string {
	var b strings.Builder
	b.WriteString("📚 Слова на повторение\n")

	total := 0
	for _, list := range lists {
		if len(list.Words) == 0 {
			continue
		}
		total += len(list.Words)

		shown := list.Words
		if len(shown) > maxDueShown {
			shown = shown[:maxDueShown]
		}
		fmt.Fprintf(&b, "\n%s (%d): %s", engine.LanguageName(list.Language), len(list.Words), strings.Join(shown, ", "))
		if rest := len(list.Words) - len(shown); rest > 0 {
			fmt.Fprintf(&b, " и ещё %d", rest)
		}
		b.WriteString("\n")
	}

	if total == 0 {
		return "🎉 Повторять пока нечего."
	}
	return b.String()
}
