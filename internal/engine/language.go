package engine

import "strings"

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"pt": "Portuguese",
	"ru": "Russian",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// LanguageName returns the English name of a language code such as "es" or
// "pt-BR". Unknown codes are returned unchanged.
func LanguageName(code string) string {
	if name, ok := languageNames[BaseLanguage(code)]; ok {
		return name
	}
	return code
}

// BaseLanguage strips the region from a language code: "pt-BR" -> "pt"
func BaseLanguage(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

// IsSupported reports whether code names a language with a known name
func IsSupported(code string) bool {
	_, ok := languageNames[BaseLanguage(code)]
	return ok
}
