package deckpdf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/facts"
)

// widthFunc returns the drawn width of UTF-8 text in inches at the current
// font.
type widthFunc func(string) float64

// splitFunc breaks one paragraph into lines no wider than width. It matches
// (*fpdf.Fpdf).SplitText, which indexes the font width table by rune and so
// only sees ASCII paragraphs.
type splitFunc func(text string, width float64) []string

// token is a wrap unit: a word, or a single full-width character that may
// break on either side.
type token struct {
	text  string
	space bool // preceded by a space
}

func tokenize(text string) []token {
	var (
		out   []token
		cur   strings.Builder
		space bool
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, token{text: cur.String(), space: space})
			cur.Reset()
			space = false
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
			if len(out) > 0 {
				space = true
			}
		case facts.IsWide(r):
			flush()
			out = append(out, token{text: string(r), space: space})
			space = false
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// wrap breaks text into lines no wider than width. Newlines are hard breaks
// and words wider than a line are broken between characters. ASCII
// paragraphs go to split when it is set; the rest, CJK included, break per
// token here.
func wrap(text string, width float64, measure widthFunc, split splitFunc) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n") {
		if split != nil && isASCII(para) {
			if parts := split(para, width); len(parts) > 0 {
				lines = append(lines, parts...)
				continue
			}
		}
		lines = append(lines, wrapParagraph(para, width, measure)...)
	}
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func wrapParagraph(para string, width float64, measure widthFunc) []string {
	tokens := tokenize(para)
	if len(tokens) == 0 {
		return []string{""}
	}
	var (
		lines []string
		line  string
	)
	for _, tk := range tokens {
		candidate := tk.text
		if line != "" {
			if tk.space {
				candidate = line + " " + tk.text
			} else {
				candidate = line + tk.text
			}
		}
		if measure(candidate) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if measure(tk.text) <= width {
			line = tk.text
			continue
		}
		pieces := breakWord(tk.text, width, measure)
		lines = append(lines, pieces[:len(pieces)-1]...)
		line = pieces[len(pieces)-1]
	}
	return append(lines, line)
}

func breakWord(word string, width float64, measure widthFunc) []string {
	var (
		out []string
		cur []rune
	)
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && measure(string(next)) > width {
			out = append(out, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(out, string(cur))
}

// truncate keeps at most max lines, marking a cut with an ellipsis that still
// fits the width.
func truncate(lines []string, max int, width float64, measure widthFunc) []string {
	if max <= 0 || len(lines) <= max {
		return lines
	}
	out := append([]string(nil), lines[:max]...)
	last := []rune(strings.TrimRight(out[max-1], " "))
	for len(last) > 0 && measure(string(last)+"…") > width {
		last = last[:len(last)-1]
	}
	out[max-1] = strings.TrimRight(string(last), " ") + "…"
	return out
}
