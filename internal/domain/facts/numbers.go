package facts

import (
	"regexp"
	"strings"
)

var (
	reURL    = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)
	reNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?%?`)
)

// NumericTokens returns every numeric token in text after URLs are removed.
// Both the fact validator and the numeric guard use this tokenizer.
func NumericTokens(text string) []string {
	text = reURL.ReplaceAllString(text, " ")
	raw := reNumber.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimRight(tok, ",")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// MeaningfulNumbers keeps the tokens worth checking: percentages and any
// token with three or more digits.
func MeaningfulNumbers(text string) []string {
	var out []string
	for _, tok := range NumericTokens(text) {
		if IsMeaningful(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// IsMeaningful reports whether tok is a percentage or has at least three digits.
func IsMeaningful(tok string) bool {
	if strings.HasSuffix(tok, "%") {
		return true
	}
	digits := 0
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 3
}

// CanonicalNumber strips grouping commas so "1,200" and "1200" compare equal.
func CanonicalNumber(tok string) string {
	return strings.ReplaceAll(tok, ",", "")
}

// NumberSet is a set of canonical numeric tokens.
type NumberSet map[string]struct{}

// AddText adds every numeric token in text.
func (s NumberSet) AddText(text string) {
	for _, tok := range NumericTokens(text) {
		s[CanonicalNumber(tok)] = struct{}{}
		// "45%" also vouches for "45".
		if strings.HasSuffix(tok, "%") {
			s[CanonicalNumber(strings.TrimSuffix(tok, "%"))] = struct{}{}
		}
	}
}

// Has reports whether the canonical form of tok is in the set. AddText stores
// percent tokens in both forms, so "12" matches a source "12%".
func (s NumberSet) Has(tok string) bool {
	_, ok := s[CanonicalNumber(tok)]
	return ok
}

// ContainsNumber reports whether text mentions tok as a standalone number.
func ContainsNumber(text, tok string) bool {
	want := CanonicalNumber(tok)
	for _, t := range NumericTokens(text) {
		c := CanonicalNumber(t)
		if c == want || strings.TrimSuffix(c, "%") == want {
			return true
		}
	}
	return false
}
