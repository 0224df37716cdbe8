// Package redact produces log-safe previews of user supplied text.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPreviewRunes bounds a Preview.
const DefaultPreviewRunes = 120

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	phonePattern      = regexp.MustCompile(`\+?\b\d{2,4}[-.\s]?\d{3,4}[-.\s]?\d{4}\b`)
	ipv4Pattern       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// Text replaces emails, card numbers, phone numbers and IPv4 addresses.
// Emails and phones become short salted hashes so repeats stay correlatable.
func Text(input, salt string) string {
	out := emailPattern.ReplaceAllStringFunc(input, func(m string) string {
		return "[EMAIL:" + hash(m, salt) + "]"
	})
	out = creditCardPattern.ReplaceAllString(out, "[CC:REDACTED]")
	out = ipv4Pattern.ReplaceAllStringFunc(out, func(m string) string {
		return "[IP:" + hash(m, salt) + "]"
	})
	return phonePattern.ReplaceAllStringFunc(out, func(m string) string {
		return "[PHONE:" + hash(m, salt) + "]"
	})
}

// Preview redacts input and truncates it to limit runes.
func Preview(input, salt string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewRunes
	}
	out := strings.Join(strings.Fields(Text(input, salt)), " ")
	if utf8.RuneCountInString(out) <= limit {
		return out
	}
	runes := []rune(out)
	return string(runes[:limit]) + "…"
}

func hash(data, salt string) string {
	sum := sha256.Sum256([]byte(data + salt))
	return hex.EncodeToString(sum[:])[:8]
}
