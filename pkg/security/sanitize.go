package security

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFilenameLength = 255

var (
	htmlCommentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	xssPattern         = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|embed|object)\b|\bon[a-z]+\s*=|javascript\s*:`)
)

// SanitizeString trims surrounding whitespace and drops control characters
// other than newline and tab
func SanitizeString(s string) string {
	return strings.TrimSpace(removeControlCharacters(s))
}

func removeControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// StripHTMLTags removes HTML comments and tags, keeping their text content
func StripHTMLTags(s string) string {
	s = htmlCommentPattern.ReplaceAllString(s, "")
	return htmlTagPattern.ReplaceAllString(s, "")
}

// NormalizeWhitespace collapses every whitespace run to one space
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateString cuts s to at most maxLength runes
func TruncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	return string([]rune(s)[:maxLength])
}

// ContainsXSS reports whether s carries script tags, inline event handlers
// or javascript: URLs
func ContainsXSS(s string) bool {
	return xssPattern.MatchString(s)
}

// CleanText prepares free text submitted by users for storage and display
// to other users
func CleanText(s string, maxLength int) string {
	s = SanitizeString(StripHTMLTags(s))
	if maxLength > 0 {
		s = TruncateString(s, maxLength)
	}
	return s
}

// SanitizeFilename removes path components and replaces anything outside
// [A-Za-z0-9._-] with an underscore
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", "", "\\", "").Replace(name)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "")
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)),
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return TruncateString(b.String(), maxFilenameLength)
}
