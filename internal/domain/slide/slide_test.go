package slide_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/slide"
)

func TestBullet_UnmarshalAcceptsString(t *testing.T) {
	var s slide.Slide
	err := json.Unmarshal([]byte(`{"type":"text","title":"T","bullets":["plain",{"text":"rich","sourceKeys":["a"]}],"unknown":1}`), &s)
	require.NoError(t, err)
	require.Len(t, s.Bullets, 2)
	assert.Equal(t, "plain", s.Bullets[0].Text)
	assert.Equal(t, []string{"a"}, s.Bullets[1].SourceKeys)
}

func TestPaginateAgenda(t *testing.T) {
	tests := []struct {
		items  int
		pages  int
		titles []string
	}{
		{3, 1, []string{"Agenda"}},
		{8, 1, []string{"Agenda"}},
		{9, 2, []string{"Agenda", "Agenda (cont.)"}},
		{17, 3, []string{"Agenda", "Agenda (cont.)", "Agenda (cont.)"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items", tt.items), func(t *testing.T) {
			s := slide.Slide{Type: slide.TypeAgenda}
			for i := 0; i < tt.items; i++ {
				s.Items = append(s.Items, fmt.Sprintf("Section %d", i+1))
			}
			pages := slide.PaginateAgenda(s)
			require.Len(t, pages, tt.pages)
			total := 0
			for i, p := range pages {
				assert.Equal(t, tt.titles[i], p.Title)
				assert.LessOrEqual(t, len(p.Items), slide.MaxAgendaItemsPage)
				total += len(p.Items)
			}
			assert.Equal(t, tt.items, total)
		})
	}
}

func TestSplit(t *testing.T) {
	s := slide.Slide{
		Type:       slide.TypeSplitImage,
		Title:      "Products",
		KeyMessage: "Acme sells arms.",
		Images:     []string{"https://cdn.acme.com/a.png"},
		Bullets: []slide.Bullet{
			{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "e"},
		},
		Icons: []string{"box", "box", "box", "box", "box"},
	}
	parts := s.Split(2)
	require.Len(t, parts, 2)
	assert.Equal(t, "Products", parts[0].Title)
	assert.Equal(t, "Products (cont.)", parts[1].Title)
	assert.Len(t, parts[0].Bullets, 3)
	assert.Len(t, parts[1].Bullets, 2)
	assert.Len(t, parts[1].Icons, 2)
	assert.Empty(t, parts[1].Images)
	assert.Empty(t, parts[1].KeyMessage)
	assert.Equal(t, slide.TypeText, parts[1].Type)

	// the original is untouched
	assert.Len(t, s.Bullets, 5)
}

func TestAsBullets(t *testing.T) {
	s := slide.Slide{Type: slide.TypeCards, Cards: []slide.Card{{Title: "ISO", Text: "Certified", SourceKeys: []string{"certs"}}}}
	b := s.AsBullets()
	require.Len(t, b, 1)
	assert.Equal(t, "ISO: Certified", b[0].Text)
	assert.Equal(t, []string{"certs"}, b[0].SourceKeys)
}
