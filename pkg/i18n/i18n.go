// Package i18n localizes alert text. Translations are compiled into the binary.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// DefaultLang is used when a key or language is not found.
const DefaultLang = "en"

var (
	supported = []language.Tag{language.English, language.Afrikaans, language.Zulu}
	matcher   = language.NewMatcher(supported)
)

// ResolveLang maps a user preference or Accept-Language value ("af-ZA",
// "zu;q=0.9, en") to one of the supported language codes.
func ResolveLang(pref string) string {
	if pref == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLang
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Translate returns the text for key in lang, formatted with args.
// Unknown languages fall back to English; unknown keys return the key.
func Translate(key, lang string, args ...interface{}) string {
	langMap, ok := translations[key]
	if !ok {
		return key
	}

	tmpl, ok := langMap[lang]
	if !ok {
		tmpl, ok = langMap[DefaultLang]
		if !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
