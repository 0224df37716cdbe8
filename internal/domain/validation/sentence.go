package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var reSentenceURL = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)

var abbreviations = map[string]bool{
	"e.g.": true, "i.e.": true, "etc.": true, "vs.": true, "inc.": true, "ltd.": true,
	"co.": true, "corp.": true, "mr.": true, "mrs.": true, "ms.": true, "dr.": true,
	"no.": true, "st.": true, "jr.": true, "sr.": true, "approx.": true, "est.": true,
	"dept.": true, "fig.": true, "u.s.": true, "u.k.": true, "a.m.": true, "p.m.": true,
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isWideTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』':
		return true
	}
	return false
}

// Sentences splits text into sentences. URLs, common abbreviations, initials
// and decimal numbers do not end a sentence.
func Sentences(text string) []string {
	var urls []string
	masked := reSentenceURL.ReplaceAllStringFunc(text, func(u string) string {
		trimmed := strings.TrimRight(u, ".,;:!?)")
		urls = append(urls, trimmed)
		return "\x00" + u[len(trimmed):]
	})

	runes := []rune(masked)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i
		for end+1 < len(runes) && (isTerminator(runes[end+1]) || isCloser(runes[end+1])) {
			end++
		}
		if !isWideTerminator(runes[i]) {
			if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
				i = end
				continue
			}
			if runes[i] == '.' && isAbbreviation(runes[start:i+1]) {
				i = end
				continue
			}
		}
		out = appendSentence(out, string(runes[start:end+1]))
		start = end + 1
		i = end
	}
	if start < len(runes) {
		out = appendSentence(out, string(runes[start:]))
	}

	// restore masked URLs in order
	if len(urls) > 0 {
		n := 0
		for i, s := range out {
			for strings.Contains(s, "\x00") && n < len(urls) {
				s = strings.Replace(s, "\x00", urls[n], 1)
				n++
			}
			out[i] = s
		}
	}
	return out
}

func isAbbreviation(segment []rune) bool {
	s := strings.TrimSpace(string(segment))
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	word := strings.ToLower(strings.TrimLeft(s[idx+1:], "(\"'"))
	if abbreviations[word] {
		return true
	}
	// single-letter initials such as "J."
	r := []rune(word)
	return len(r) == 2 && unicode.IsLetter(r[0])
}

func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == 0
	}) < 0 {
		return out
	}
	return append(out, s)
}

// SentenceCount returns the number of sentences in text.
func SentenceCount(text string) int {
	return len(Sentences(text))
}

// FirstSentence returns the first sentence of text, or text itself when it
// holds none.
func FirstSentence(text string) string {
	s := Sentences(text)
	if len(s) == 0 {
		return strings.TrimSpace(text)
	}
	return s[0]
}
