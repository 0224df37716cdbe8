// Package theme loads the visual themes that drive layout and rendering.
package theme

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed themes/*.yaml
var builtin embed.FS

// DefaultName is the theme used when none is requested.
const DefaultName = "default"

// Range is a font size range in points.
type Range struct {
	Min float64 `yaml:"min" json:"min" validate:"gt=0"`
	Max float64 `yaml:"max" json:"max" validate:"gtefield=Min"`
}

// Clamp limits size to the range.
func (r Range) Clamp(size float64) float64 {
	if size < r.Min {
		return r.Min
	}
	if size > r.Max {
		return r.Max
	}
	return size
}

// Canvas is the page size in inches.
type Canvas struct {
	Width  float64 `yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `yaml:"height" json:"height" validate:"gt=0"`
}

// Grid is the column grid boxes snap to.
type Grid struct {
	Columns int     `yaml:"columns" json:"columns" validate:"gt=0,lte=24"`
	Margin  float64 `yaml:"margin" json:"margin" validate:"gte=0"`
	Gutter  float64 `yaml:"gutter" json:"gutter" validate:"gte=0"`
}

// Fonts holds the size range per text role.
type Fonts struct {
	Title     Range `yaml:"title" json:"title"`
	Subtitle  Range `yaml:"subtitle" json:"subtitle"`
	Body      Range `yaml:"body" json:"body"`
	Caption   Range `yaml:"caption" json:"caption"`
	BigNumber Range `yaml:"bigNumber" json:"bigNumber"`
	Quote     Range `yaml:"quote" json:"quote"`
}

// Colors are hex color roles.
type Colors struct {
	Background string `yaml:"background" json:"background" validate:"required,hexcolor"`
	Surface    string `yaml:"surface" json:"surface" validate:"required,hexcolor"`
	Text       string `yaml:"text" json:"text" validate:"required,hexcolor"`
	Muted      string `yaml:"muted" json:"muted" validate:"required,hexcolor"`
	Accent     string `yaml:"accent" json:"accent" validate:"required,hexcolor"`
	AccentText string `yaml:"accentText" json:"accentText" validate:"required,hexcolor"`
}

// Theme is a resolved visual theme.
type Theme struct {
	Name       string  `yaml:"name" json:"name" validate:"required"`
	FontFamily string  `yaml:"fontFamily" json:"fontFamily"`
	Canvas     Canvas  `yaml:"canvas" json:"canvas"`
	Grid       Grid    `yaml:"grid" json:"grid"`
	Fonts      Fonts   `yaml:"fonts" json:"fonts"`
	LineHeight float64 `yaml:"lineHeight" json:"lineHeight" validate:"gte=1,lte=3"`
	// CharWidth is the average glyph width as a fraction of the font size.
	CharWidth     float64 `yaml:"charWidth" json:"charWidth" validate:"gt=0,lt=1.5"`
	MaxTitleLines int     `yaml:"maxTitleLines" json:"maxTitleLines" validate:"gt=0"`
	Colors        Colors  `yaml:"colors" json:"colors"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates one YAML theme.
func Parse(data []byte) (Theme, error) {
	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Theme{}, fmt.Errorf("decode theme: %w", err)
	}
	if t.FontFamily == "" {
		t.FontFamily = "Helvetica"
	}
	if err := validate.Struct(t); err != nil {
		return Theme{}, fmt.Errorf("invalid theme %q: %w", t.Name, err)
	}
	if usable := t.Canvas.Width - 2*t.Grid.Margin - float64(t.Grid.Columns-1)*t.Grid.Gutter; usable <= 0 {
		return Theme{}, fmt.Errorf("invalid theme %q: grid does not fit the canvas", t.Name)
	}
	return t, nil
}

// ColumnWidth is the width of one grid column.
func (t Theme) ColumnWidth() float64 {
	g := t.Grid
	return (t.Canvas.Width - 2*g.Margin - float64(g.Columns-1)*g.Gutter) / float64(g.Columns)
}

// SpanWidth is the width covered by n adjacent columns including gutters.
func (t Theme) SpanWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n > t.Grid.Columns {
		n = t.Grid.Columns
	}
	return float64(n)*t.ColumnWidth() + float64(n-1)*t.Grid.Gutter
}

// ColumnX is the left edge of column col (0-based).
func (t Theme) ColumnX(col int) float64 {
	return t.Grid.Margin + float64(col)*(t.ColumnWidth()+t.Grid.Gutter)
}

// ContentWidth is the width inside the safe margins.
func (t Theme) ContentWidth() float64 {
	return t.Canvas.Width - 2*t.Grid.Margin
}

// ContentHeight is the height inside the safe margins.
func (t Theme) ContentHeight() float64 {
	return t.Canvas.Height - 2*t.Grid.Margin
}

// RGB parses a #RRGGBB color. Invalid input yields black.
func RGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// Registry holds the themes available to a process.
type Registry struct {
	themes      map[string]Theme
	defaultName string
}

// NewRegistry loads the built-in themes plus every *.yaml/*.yml in dir (when
// dir is non-empty). Themes from dir override built-ins of the same name.
func NewRegistry(dir, defaultName string) (*Registry, error) {
	r := &Registry{themes: map[string]Theme{}, defaultName: defaultName}
	if r.defaultName == "" {
		r.defaultName = DefaultName
	}

	if err := r.loadFS(builtin, "themes"); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := r.loadFS(os.DirFS(dir), "."); err != nil {
			return nil, fmt.Errorf("load themes from %s: %w", dir, err)
		}
	}
	if _, ok := r.themes[r.defaultName]; !ok {
		return nil, fmt.Errorf("default theme %q not found", r.defaultName)
	}
	return r, nil
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		t, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.themes[t.Name] = t
		return nil
	})
}

// Get returns the named theme.
func (r *Registry) Get(name string) (Theme, bool) {
	t, ok := r.themes[name]
	return t, ok
}

// Resolve returns the named theme or the default when name is empty or unknown.
func (r *Registry) Resolve(name string) Theme {
	if t, ok := r.themes[name]; ok {
		return t
	}
	return r.themes[r.defaultName]
}

// Names lists the available themes, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.themes))
	for name := range r.themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns the built-in default theme.
func Default() Theme {
	data, err := builtin.ReadFile("themes/default.yaml")
	if err != nil {
		panic(fmt.Sprintf("theme: built-in default missing: %v", err))
	}
	t, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("theme: built-in default invalid: %v", err))
	}
	return t
}
