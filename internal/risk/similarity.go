package risk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	landlinePattern = regexp.MustCompile(`^(\+27|0)[1-9][0-9]{8}$`)
	mobilePattern   = regexp.MustCompile(`^(\+27|0)[6-8][0-9]{8}$`)
)

// Levenshtein returns the edit distance between a and b, counting
// insertions, deletions and substitutions of runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Similarity returns 1 - distance/longer length, in [0, 1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	longer := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longer == 0 {
		return 1.0
	}
	return float64(longer-Levenshtein(a, b)) / float64(longer)
}

// IsValidRegionalPhone reports whether phone looks like a South African
// landline or mobile number once whitespace is removed
func IsValidRegionalPhone(phone string) bool {
	p := strings.Join(strings.Fields(phone), "")
	return landlinePattern.MatchString(p) || mobilePattern.MatchString(p)
}
