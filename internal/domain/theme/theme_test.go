package theme_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/theme"
)

func TestDefault(t *testing.T) {
	th := theme.Default()
	assert.Equal(t, "default", th.Name)
	assert.InDelta(t, 13.333, th.Canvas.Width, 1e-9)
	assert.Equal(t, 12, th.Grid.Columns)

	// 12 columns and 11 gutters fill the content width
	assert.InDelta(t, th.ContentWidth(), th.SpanWidth(12), 1e-9)
	assert.InDelta(t, th.Grid.Margin, th.ColumnX(0), 1e-9)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	custom := `
name: brand
canvas: {width: 10, height: 5.625}
grid: {columns: 6, margin: 0.4, gutter: 0.1}
fonts:
  title: {min: 20, max: 30}
  subtitle: {min: 12, max: 16}
  body: {min: 10, max: 16}
  caption: {min: 8, max: 10}
  bigNumber: {min: 40, max: 80}
  quote: {min: 14, max: 22}
lineHeight: 1.2
charWidth: 0.5
maxTitleLines: 2
colors: {background: "#000000", surface: "#111111", text: "#FFFFFF", muted: "#AAAAAA", accent: "#FF0000", accentText: "#FFFFFF"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brand.yaml"), []byte(custom), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	r, err := theme.NewRegistry(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"brand", "default", "midnight", "paper"}, r.Names())

	brand, ok := r.Get("brand")
	require.True(t, ok)
	assert.Equal(t, "Helvetica", brand.FontFamily)
	assert.Equal(t, "default", r.Resolve("missing").Name)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "name: [oops"},
		{"missing name", "canvas: {width: 10, height: 5}"},
		{"bad color", `
name: x
canvas: {width: 10, height: 5}
grid: {columns: 12, margin: 0.5, gutter: 0.2}
fonts: {title: {min: 1, max: 2}, subtitle: {min: 1, max: 2}, body: {min: 1, max: 2}, caption: {min: 1, max: 2}, bigNumber: {min: 1, max: 2}, quote: {min: 1, max: 2}}
lineHeight: 1.2
charWidth: 0.5
maxTitleLines: 2
colors: {background: "white", surface: "#111111", text: "#FFFFFF", muted: "#AAAAAA", accent: "#FF0000", accentText: "#FFFFFF"}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := theme.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRGB(t *testing.T) {
	r, g, b := theme.RGB("#2563EB")
	assert.Equal(t, []int{0x25, 0x63, 0xEB}, []int{r, g, b})
	r, g, b = theme.RGB("#fff")
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})
	r, g, b = theme.RGB("nope")
	assert.Equal(t, []int{0, 0, 0}, []int{r, g, b})
}
