package slide

import "fmt"

// TextField is one piece of copy on a slide together with the facts it cites.
type TextField struct {
	Path       string
	Text       string
	SourceKeys []string
	// Traced fields must cite at least one fact in strict mode.
	Traced  bool
	Insight bool
}

// TextFields enumerates every text-bearing field of the slide in a stable order.
func (s Slide) TextFields() []TextField {
	var out []TextField
	add := func(f TextField) {
		if f.Text != "" || len(f.SourceKeys) > 0 {
			out = append(out, f)
		}
	}

	add(TextField{Path: "title", Text: s.Title})
	add(TextField{Path: "subtitle", Text: s.Subtitle})
	add(TextField{Path: "keyMessage", Text: s.KeyMessage, SourceKeys: s.KeyMessageSourceKeys})
	for i, b := range s.Bullets {
		add(TextField{
			Path:       fmt.Sprintf("bullets[%d]", i),
			Text:       b.Text,
			SourceKeys: b.SourceKeys,
			Traced:     true,
			Insight:    b.IsInsight(),
		})
	}
	for i, p := range s.Emphasis.Phrases {
		add(TextField{Path: fmt.Sprintf("emphasis.phrases[%d]", i), Text: p})
	}
	for i, n := range s.Emphasis.Numbers {
		add(TextField{
			Path:       fmt.Sprintf("emphasis.numbers[%d]", i),
			Text:       joinNonEmpty(n.Value, n.Label),
			SourceKeys: n.SourceKeys,
			Traced:     true,
		})
	}
	for i, item := range s.Items {
		add(TextField{Path: fmt.Sprintf("items[%d]", i), Text: item})
	}

	switch s.Type {
	case TypeCards:
		for i, c := range s.Cards {
			add(TextField{
				Path:       fmt.Sprintf("cards[%d]", i),
				Text:       joinNonEmpty(c.Title, c.Text),
				SourceKeys: c.SourceKeys,
				Traced:     true,
			})
		}
	case TypeProfile:
		if s.Profile != nil {
			add(TextField{
				Path:       "profile",
				Text:       joinNonEmpty(s.Profile.Name, s.Profile.Role),
				SourceKeys: s.Profile.SourceKeys,
			})
		}
	case TypeBigNumber:
		if s.BigNumber != nil {
			add(TextField{
				Path:       "bigNumber",
				Text:       joinNonEmpty(s.BigNumber.Value, s.BigNumber.Label),
				SourceKeys: s.BigNumber.SourceKeys,
				Traced:     true,
			})
		}
	case TypeTimeline:
		for i, e := range s.Events {
			add(TextField{
				Path:       fmt.Sprintf("events[%d]", i),
				Text:       joinNonEmpty(e.Label, e.Text),
				SourceKeys: e.SourceKeys,
				Traced:     true,
			})
		}
	case TypeQuote:
		if s.Quote != nil {
			add(TextField{
				Path:       "quote",
				Text:       joinNonEmpty(s.Quote.Text, s.Quote.Attribution),
				SourceKeys: s.Quote.SourceKeys,
				Traced:     true,
			})
		}
	}
	return out
}

// AsBullets flattens the variant payload into plain bullets in drawing order,
// keeping each entry's citations.
func (s Slide) AsBullets() []Bullet {
	var out []Bullet
	switch s.Type {
	case TypeAgenda:
		for _, item := range s.Items {
			out = append(out, Bullet{Text: item})
		}
		return out
	case TypeCards:
		for _, c := range s.Cards {
			out = append(out, Bullet{Text: joinNonEmpty(c.Title, c.Text), SourceKeys: cloneStrings(c.SourceKeys), Kind: KindFact})
		}
		if len(out) > 0 {
			return out
		}
	case TypeTimeline:
		for _, e := range s.Events {
			out = append(out, Bullet{Text: joinNonEmpty(e.Label, e.Text), SourceKeys: cloneStrings(e.SourceKeys), Kind: KindFact})
		}
		if len(out) > 0 {
			return out
		}
	case TypeQuote:
		if s.Quote != nil {
			return append(out, Bullet{Text: s.Quote.Text, SourceKeys: cloneStrings(s.Quote.SourceKeys), Kind: KindFact})
		}
	case TypeBigNumber:
		if s.BigNumber != nil {
			out = append(out, Bullet{
				Text:       joinNonEmpty(s.BigNumber.Value, s.BigNumber.Label),
				SourceKeys: cloneStrings(s.BigNumber.SourceKeys),
				Kind:       KindFact,
			})
		}
	case TypeProfile:
		if s.Profile != nil {
			out = append(out, Bullet{
				Text:       joinNonEmpty(s.Profile.Name, s.Profile.Role),
				SourceKeys: cloneStrings(s.Profile.SourceKeys),
				Kind:       KindFact,
			})
		}
	}
	for _, b := range s.Bullets {
		b.SourceKeys = cloneStrings(b.SourceKeys)
		out = append(out, b)
	}
	return out
}

// BodyLines returns the lines a layout has to fit in the slide body, in the
// order they are drawn.
func (s Slide) BodyLines() []string {
	bullets := s.AsBullets()
	out := make([]string, len(bullets))
	for i, b := range bullets {
		out[i] = b.Text
	}
	return out
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + ": " + b
	}
}
