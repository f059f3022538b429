package service

import (
	"fmt"
	"strings"
	"time"

	"lingocall/internal/domain"
	"lingocall/internal/engine"

	"github.com/dustin/go-humanize"
)

var greetings = map[string]string{
	"de": "Hallo! Schön, dass du anrufst. Wie geht's dir?",
	"en": "Hi! Good to hear from you. How are you?",
	"es": "¡Hola! Qué bueno que llamas. ¿Cómo estás?",
	"fr": "Salut ! Ça me fait plaisir que tu appelles. Comment ça va ?",
	"it": "Ciao! Che bello sentirti. Come stai?",
	"ja": "もしもし！電話ありがとう。元気？",
	"pt": "Olá! Que bom que ligaste. Como estás?",
	"ru": "Привет! Рада тебя слышать. Как дела?",
}

var clarifications = map[string]string{
	"de": "Entschuldigung, das habe ich nicht verstanden. Kannst du das wiederholen?",
	"en": "Sorry, I didn't catch that. Could you say it again?",
	"es": "Perdona, no te he entendido. ¿Puedes repetirlo?",
	"fr": "Pardon, je n'ai pas compris. Tu peux répéter ?",
	"it": "Scusa, non ho capito. Puoi ripetere?",
	"ja": "ごめん、聞き取れなかった。もう一度言って？",
	"pt": "Desculpa, não percebi. Podes repetir?",
	"ru": "Извини, я не поняла. Повтори, пожалуйста.",
}

// greeting is spoken when the intro cannot be generated
func greeting(language string) string {
	if g, ok := greetings[engine.BaseLanguage(language)]; ok {
		return g
	}
	return greetings["en"]
}

// clarification asks the learner to repeat themselves
func clarification(language string) string {
	if c, ok := clarifications[engine.BaseLanguage(language)]; ok {
		return c
	}
	return clarifications["en"]
}

// introPrompt asks for the opening line of a call
func introPrompt(contact domain.Contact, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", contact.Name, contact.Persona)
	if contact.LastCallAt == nil {
		b.WriteString("This is the first time the learner calls you.\n")
	} else {
		fmt.Fprintf(&b, "The learner last called you %s.\n", humanize.RelTime(*contact.LastCallAt, now, "ago", "from now"))
	}
	fmt.Fprintf(&b, "Answer the phone in %s with one or two short, friendly sentences and tell them what you have been up to.",
		engine.LanguageName(contact.Language))
	return b.String()
}

// replyPrompt asks for the next line of the conversation
func replyPrompt(contact domain.Contact, history []domain.Turn, transcript, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", contact.Name, contact.Persona)
	fmt.Fprintf(&b, "You are on a phone call with someone learning %s. Keep replies short and simple.\n",
		engine.LanguageName(contact.Language))
	if engine.BaseLanguage(language) != engine.BaseLanguage(contact.Language) {
		fmt.Fprintf(&b, "They are having trouble understanding, so reply in %s this time.\n", engine.LanguageName(language))
	}

	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", speakerLabel(turn.Speaker, contact), turn.Text)
		}
	}

	fmt.Fprintf(&b, "\nLearner: %s\n%s:", transcript, contact.Name)
	return b.String()
}

func speakerLabel(s domain.Speaker, contact domain.Contact) string {
	if s == domain.SpeakerAI {
		return contact.Name
	}
	return "Learner"
}
