package deckpdf

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/render"
	"github.com/janhq/deck-server/internal/domain/theme"
)

const pointsPerInch = 72.0

var imageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/gif":  "GIF",
}

type slideNote struct {
	slide int
	text  string
}

// Canvas draws slides into a PDF document, one page per slide. Speaker notes
// are appended as pages after the last slide.
type Canvas struct {
	pdf    *fpdf.Fpdf
	fonts  fontSet
	theme  theme.Theme
	slides int
	notes  []slideNote
	images map[uint64]string
}

func newDocument(t theme.Theme) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           fpdf.SizeType{Wd: t.Canvas.Width, Ht: t.Canvas.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

func newCanvas(t theme.Theme, ttf []byte) *Canvas {
	pdf := newDocument(t)
	pdf.SetCreator("deck-api", true)
	return &Canvas{
		pdf:    pdf,
		fonts:  setupFonts(pdf, ttf, t.FontFamily),
		theme:  t,
		images: map[uint64]string{},
	}
}

// AddSlide implements render.Canvas.
func (c *Canvas) AddSlide(bg render.Color) {
	c.pdf.AddPage()
	c.slides++
	c.fill(bg)
	c.pdf.Rect(0, 0, c.theme.Canvas.Width, c.theme.Canvas.Height, "F")
}

// Rect implements render.Canvas.
func (c *Canvas) Rect(b layout.Box, fill render.Color) {
	c.fill(fill)
	c.pdf.Rect(b.X, b.Y, b.W, b.H, "F")
}

func (c *Canvas) fill(col render.Color) {
	c.pdf.SetFillColor(col.R, col.G, col.B)
}

func (c *Canvas) width(s string) float64 {
	return c.pdf.GetStringWidth(c.fonts.encode(s))
}

// Text implements render.Canvas. Lines that would cross the bottom of the box
// are not drawn.
func (c *Canvas) Text(b layout.Box, paras []render.Paragraph, st render.TextStyle) {
	if len(paras) == 0 || st.Size <= 0 {
		return
	}
	lineHeight := st.LineHeight
	if lineHeight <= 0 {
		lineHeight = c.theme.LineHeight
	}
	lh := st.Size * lineHeight / pointsPerInch
	x := b.X + st.PadX
	w := b.W - 2*st.PadX
	y := b.Y + st.PadTop
	bottom := b.Y + b.H + 1e-6

	align := "L"
	if st.Align == render.AlignCenter {
		align = "C"
	}
	c.pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)

	for i, p := range paras {
		if i > 0 {
			y += st.ParagraphGap * lh
		}
		c.pdf.SetFont(c.fonts.family, fontStyle(st.Bold || p.Bold, st.Italic), st.Size)
		textW := w - st.Indent
		lines := truncate(wrap(p.Text, textW, c.width, c.pdf.SplitText), st.MaxLines, textW, c.width)
		for j, line := range lines {
			if y+lh > bottom {
				return
			}
			if j == 0 && p.Marker != "" {
				c.pdf.SetXY(x, y)
				c.pdf.CellFormat(st.Indent, lh, c.fonts.encode(p.Marker), "", 0, "L", false, 0, "")
			}
			c.pdf.SetXY(x+st.Indent, y)
			c.pdf.CellFormat(textW, lh, c.fonts.encode(line), "", 0, align, false, 0, "")
			y += lh
		}
	}
}

// Image implements render.Canvas. The image is scaled to fit the box and
// centered. Bytes the PDF library cannot decode are replaced by the
// placeholder.
func (c *Canvas) Image(b layout.Box, img render.Image) error {
	name, info, err := c.register(img)
	if err != nil {
		name, info, err = c.register(render.Placeholder())
		if err != nil {
			return err
		}
	}
	iw, ih := info.Width(), info.Height()
	if iw <= 0 || ih <= 0 || b.W <= 0 || b.H <= 0 {
		return nil
	}
	scale := min(b.W/iw, b.H/ih)
	w, h := iw*scale, ih*scale
	x := b.X + (b.W-w)/2
	y := b.Y + (b.H-h)/2
	c.pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("draw image: %w", err)
	}
	return nil
}

func (c *Canvas) register(img render.Image) (string, *fpdf.ImageInfoType, error) {
	tp, ok := imageTypes[img.MIME]
	if !ok || len(img.Data) == 0 {
		return "", nil, fmt.Errorf("unsupported image type %q", img.MIME)
	}
	h := fnv.New64a()
	_, _ = h.Write(img.Data)
	sum := h.Sum64()
	if name, ok := c.images[sum]; ok {
		return name, c.pdf.GetImageInfo(name), nil
	}

	name := fmt.Sprintf("img-%x", sum)
	info := c.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: tp}, bytes.NewReader(img.Data))
	if err := c.pdf.Error(); err != nil || info == nil {
		c.pdf.ClearError()
		if err == nil {
			err = errors.New("image not registered")
		}
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	c.images[sum] = name
	return name, info, nil
}

// Notes implements render.Canvas.
func (c *Canvas) Notes(text string) {
	if text = strings.TrimSpace(text); text != "" && c.slides > 0 {
		c.notes = append(c.notes, slideNote{slide: c.slides, text: text})
	}
}

// Close appends the notes pages and writes the document.
func (c *Canvas) Close(w io.Writer) error {
	c.notesPages()
	return c.pdf.Output(w)
}

func (c *Canvas) notesPages() {
	if len(c.notes) == 0 {
		return
	}
	margin := c.theme.Grid.Margin
	box := layout.Box{X: margin, Y: margin, W: c.theme.Canvas.Width - 2*margin, H: c.theme.Canvas.Height - 2*margin}
	text := render.Hex(c.theme.Colors.Text)
	muted := render.Hex(c.theme.Colors.Muted)
	for _, n := range c.notes {
		c.pdf.AddPage()
		c.fill(render.Color{R: 255, G: 255, B: 255})
		c.pdf.Rect(0, 0, c.theme.Canvas.Width, c.theme.Canvas.Height, "F")
		heading := fmt.Sprintf("Notes: slide %d", n.slide)
		c.Text(box, render.Plain(heading), render.TextStyle{Size: 14, LineHeight: 1.3, Color: muted, Bold: true})
		body := box
		body.Y += 0.5
		body.H -= 0.5
		c.Text(body, render.Plain(strings.Split(n.text, "\n")...), render.TextStyle{Size: 12, LineHeight: 1.4, Color: text, ParagraphGap: 0.3})
	}
}

var _ render.Canvas = (*Canvas)(nil)
