// Package tokenizer turns a transcribed utterance into the set of words
// the scheduler tracks.
package tokenizer

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	kagome "github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenize lower-cases text, splits it on every rune that is neither a letter
// nor a digit and returns the distinct words. Words of one rune and words
// containing a digit are dropped.
func Tokenize(text string) map[string]struct{} {
	words := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		addWord(words, f)
	}
	return words
}

func addWord(words map[string]struct{}, token string) {
	token = strings.TrimSpace(token)
	if utf8.RuneCountInString(token) <= 1 {
		return
	}
	if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
		return
	}
	words[token] = struct{}{}
}

// Tokenizer adds morphological segmentation for languages written without
// spaces. The dictionary is loaded on first use.
type Tokenizer struct {
	once sync.Once
	ja   *kagome.Tokenizer
	err  error
}

// New creates a Tokenizer
func New() *Tokenizer {
	return &Tokenizer{}
}

// TokenizeLanguage is Tokenize with segmentation for Japanese. If the
// dictionary cannot be loaded it falls back to Tokenize.
func (t *Tokenizer) TokenizeLanguage(text, language string) map[string]struct{} {
	if !isJapanese(language) {
		return Tokenize(text)
	}

	seg, err := t.japanese()
	if err != nil {
		return Tokenize(text)
	}

	words := make(map[string]struct{})
	for _, tok := range seg.Tokenize(text) {
		if tok.Class == kagome.DUMMY {
			continue
		}
		// Surface may still carry punctuation or latin words glued together.
		for w := range Tokenize(tok.Surface) {
			addWord(words, w)
		}
	}
	return words
}

func (t *Tokenizer) japanese() (*kagome.Tokenizer, error) {
	t.once.Do(func() {
		t.ja, t.err = kagome.New(ipa.Dict(), kagome.OmitBosEos())
	})
	return t.ja, t.err
}

func isJapanese(language string) bool {
	lang := strings.ToLower(language)
	return lang == "ja" || strings.HasPrefix(lang, "ja-") || strings.HasPrefix(lang, "ja_")
}
