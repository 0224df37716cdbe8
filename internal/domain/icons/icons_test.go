package icons_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/janhq/deck-server/internal/domain/icons"
	"github.com/janhq/deck-server/internal/domain/slide"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Certified to ISO 9001 quality standards", "award"},
		{"Exports to 30 countries worldwide", "globe"},
		{"Factory capacity of 5000 units", "factory"},
		{"公司成立于2010年", "calendar"},
		{"Something entirely unrelated", icons.Default},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := icons.Match(tt.text); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	in := slide.Spec{PresentationTitle: "Acme", Slides: []slide.Slide{
		{Type: slide.TypeTitle, Title: "Acme"},
		{Type: slide.TypeText, Title: "Reach", Bullets: []slide.Bullet{
			{Text: "Exports to Europe"},
			{Text: "Unrelated"},
		}, Icons: []string{"", "leaf"}},
		{Type: slide.TypeCards, Title: "Quality", Cards: []slide.Card{{Title: "ISO 9001", Text: "Certified quality system"}}},
	}}

	out := icons.Assign(in)

	assert.Empty(t, out.Slides[0].Icons)
	assert.Equal(t, []string{"globe", "leaf"}, out.Slides[1].Icons)
	assert.Equal(t, "award", out.Slides[2].Cards[0].Icon)
	assert.Len(t, out.Slides[2].Icons, 1)

	// input untouched
	assert.Equal(t, []string{"", "leaf"}, in.Slides[1].Icons)
	assert.Empty(t, in.Slides[2].Cards[0].Icon)
}

func TestLookup(t *testing.T) {
	assert.Equal(t, "globe", icons.Lookup("globe").Name)
	assert.Equal(t, icons.Default, icons.Lookup("rocket").Name)
	assert.Contains(t, icons.Names(), "factory")
}
