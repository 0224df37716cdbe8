package deckpdf

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/theme"
)

// one unit per rune
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"empty", "   ", 10, nil},
		{"fits", "short", 10, []string{"short"}},
		{"greedy", "aaa bbb ccc", 7, []string{"aaa bbb", "ccc"}},
		{"hard break", "one\ntwo", 10, []string{"one", "two"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"cjk breaks anywhere", "公司英文名称", 4, []string{"公司英文", "名称"}},
		{"mixed", "Acme 公司 ok", 6, []string{"Acme 公", "司 ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(tt.text, tt.width, runeWidth, nil))
		})
	}
}

func TestWrap_SplitsASCIIWithFontMetrics(t *testing.T) {
	pdf := newDocument(theme.Default())
	pdf.SetFont("Helvetica", "", 18)
	measure := func(s string) float64 { return pdf.GetStringWidth(s) }

	text := "Acme Studio designs and manufactures industrial robot arms\n公司英文名称为深圳创新科技有限公司"
	lines := wrap(text, 2.5, measure, pdf.SplitText)
	require.Greater(t, len(lines), 2)

	var latin []string
	for _, l := range lines {
		assert.LessOrEqual(t, measure(l), 2.501, l)
		if isASCII(l) {
			latin = append(latin, l)
		}
	}
	assert.Equal(t, "Acme Studio designs and manufactures industrial robot arms", strings.Join(latin, " "))
	assert.Equal(t, "公司英文名称为深圳创新科技有限公司", strings.Join(lines[len(latin):], ""))
}

func TestTruncate(t *testing.T) {
	lines := []string{"alpha beta", "gamma delta", "epsilon"}
	assert.Equal(t, lines, truncate(lines, 0, 11, runeWidth))
	assert.Equal(t, lines, truncate(lines, 3, 11, runeWidth))

	out := truncate(lines, 2, 11, runeWidth)
	assert.Equal(t, []string{"alpha beta", "gamma delt…"}, out)
	for _, l := range out {
		assert.LessOrEqual(t, runeWidth(l), 11.0)
	}
}
