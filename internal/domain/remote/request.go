package remote

import (
	"fmt"
	"strings"

	"github.com/janhq/deck-server/internal/domain/slide"
)

// CardBreak separates cards in Request.InputText.
const CardBreak = "\n---\n"

// Request is the document sent to the generation service. The deck content
// is already final: the service is asked to preserve the text and split on
// CardBreak.
type Request struct {
	Title                  string       `json:"title"`
	InputText              string       `json:"inputText"`
	Format                 string       `json:"format"`
	TextMode               string       `json:"textMode"`
	CardSplit              string       `json:"cardSplit"`
	NumCards               int          `json:"numCards"`
	ThemeName              string       `json:"themeName,omitempty"`
	ExportAs               string       `json:"exportAs,omitempty"`
	AdditionalInstructions string       `json:"additionalInstructions,omitempty"`
	ImageOptions           ImageOptions `json:"imageOptions"`
}

// ImageOptions tells the service where pictures come from.
type ImageOptions struct {
	Source string `json:"source"`
}

// BuildOptions tunes BuildRequest.
type BuildOptions struct {
	Theme    string
	ExportAs string
	// Instructions are passed through as additional instructions.
	Instructions string
}

// BuildRequest converts a final spec into one markdown card per slide.
func BuildRequest(spec slide.Spec, opts BuildOptions) Request {
	cards := make([]string, 0, len(spec.Slides))
	agendaNext := 1
	for _, s := range spec.Slides {
		if s.Type == slide.TypeAgenda && !strings.HasSuffix(s.Title, slide.ContinuationSuffix) {
			agendaNext = 1
		}
		cards = append(cards, cardMarkdown(s, agendaNext))
		if s.Type == slide.TypeAgenda {
			agendaNext += len(s.Items)
		}
	}
	exportAs := opts.ExportAs
	if exportAs == "" {
		exportAs = "pdf"
	}
	imageSource := "noImages"
	for _, s := range spec.Slides {
		if len(s.Images) > 0 {
			imageSource = "inputText"
			break
		}
	}
	return Request{
		Title:                  spec.PresentationTitle,
		InputText:              strings.Join(cards, CardBreak),
		Format:                 "presentation",
		TextMode:               "preserve",
		CardSplit:              "inputTextBreaks",
		NumCards:               len(cards),
		ThemeName:              opts.Theme,
		ExportAs:               exportAs,
		AdditionalInstructions: strings.TrimSpace(opts.Instructions),
		ImageOptions:           ImageOptions{Source: imageSource},
	}
}

func cardMarkdown(s slide.Slide, ordinal int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", oneLine(s.Title))
	switch s.Type {
	case slide.TypeTitle, slide.TypeSection:
		if sub := firstNonEmpty(s.Subtitle, s.KeyMessage); sub != "" {
			fmt.Fprintf(&b, "\n%s\n", oneLine(sub))
		}
		return b.String()
	}
	if km := strings.TrimSpace(s.KeyMessage); km != "" {
		fmt.Fprintf(&b, "\n**%s**\n", oneLine(km))
	}

	switch {
	case s.Type == slide.TypeAgenda:
		b.WriteByte('\n')
		for i, item := range s.Items {
			fmt.Fprintf(&b, "%d. %s\n", ordinal+i, oneLine(item))
		}
	case s.Type == slide.TypeCards && len(s.Cards) > 0:
		for _, c := range s.Cards {
			fmt.Fprintf(&b, "\n### %s\n", oneLine(c.Title))
			if c.Text != "" {
				fmt.Fprintf(&b, "%s\n", oneLine(c.Text))
			}
		}
	case s.Type == slide.TypeTimeline && len(s.Events) > 0:
		b.WriteByte('\n')
		for _, e := range s.Events {
			fmt.Fprintf(&b, "- **%s**: %s\n", oneLine(e.Label), oneLine(e.Text))
		}
	case s.Type == slide.TypeBigNumber && s.BigNumber != nil:
		fmt.Fprintf(&b, "\n## %s\n", oneLine(s.BigNumber.Value))
		if s.BigNumber.Label != "" {
			fmt.Fprintf(&b, "%s\n", oneLine(s.BigNumber.Label))
		}
	case s.Type == slide.TypeQuote && s.Quote != nil:
		fmt.Fprintf(&b, "\n> %s\n", oneLine(s.Quote.Text))
		if s.Quote.Attribution != "" {
			fmt.Fprintf(&b, ">\n> %s\n", oneLine(s.Quote.Attribution))
		}
	case s.Type == slide.TypeProfile && s.Profile != nil:
		fmt.Fprintf(&b, "\n**%s**", oneLine(s.Profile.Name))
		if s.Profile.Role != "" {
			fmt.Fprintf(&b, ", %s", oneLine(s.Profile.Role))
		}
		b.WriteByte('\n')
		if s.Profile.Image != "" {
			fmt.Fprintf(&b, "\n![%s](%s)\n", oneLine(s.Profile.Name), s.Profile.Image)
		}
	}

	if len(s.Bullets) > 0 {
		b.WriteByte('\n')
		for _, bl := range s.Bullets {
			fmt.Fprintf(&b, "- %s\n", oneLine(bl.Text))
		}
	}
	for _, img := range s.Images {
		fmt.Fprintf(&b, "\n![](%s)\n", img)
	}
	return b.String()
}

// oneLine keeps markdown structure intact by folding newlines.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
