package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]struct{}
	}{
		{
			name:     "case folded and deduplicated",
			input:    "Cats and cats run.",
			expected: set("cats", "and", "run"),
		},
		{
			name:     "digit tokens dropped",
			input:    "Hello, hello world2!",
			expected: set("hello"),
		},
		{
			name:     "single letters dropped",
			input:    "I am a cat",
			expected: set("am", "cat"),
		},
		{
			name:     "accented letters kept in one word",
			input:    "¿Cómo estás?",
			expected: set("cómo", "estás"),
		},
		{
			name:     "apostrophes and hyphens split",
			input:    "don't well-known",
			expected: set("don", "well", "known"),
		},
		{
			name:     "pure numbers dropped",
			input:    "route 66 now",
			expected: set("route", "now"),
		},
		{
			name:     "empty input",
			input:    "",
			expected: set(),
		},
		{
			name:     "whitespace only",
			input:    "  \t\n ",
			expected: set(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestTokenizer_TokenizeLanguage_NonJapanese(t *testing.T) {
	tok := New()

	assert.Equal(t, set("hola", "como", "estas"), tok.TokenizeLanguage("hola como estas", "es"))
	assert.Equal(t, set("run"), tok.TokenizeLanguage("run run run", "en"))
}

func TestTokenizer_TokenizeLanguage_Japanese(t *testing.T) {
	tok := New()

	words := tok.TokenizeLanguage("毎日勉強します。", "ja")

	assert.Contains(t, words, "勉強")
	assert.NotContains(t, words, "し")
	assert.NotContains(t, words, "。")
}

func TestIsJapanese(t *testing.T) {
	assert.True(t, isJapanese("ja"))
	assert.True(t, isJapanese("JA-jp"))
	assert.False(t, isJapanese("jav"))
	assert.False(t, isJapanese("es"))
}
