package slide

// ChunkLen is the length of the collection a slide is split on: agenda items,
// cards, timeline events or bullets, in that order of preference by type.
func (s Slide) ChunkLen() int {
	switch {
	case s.Type == TypeAgenda:
		return len(s.Items)
	case s.Type == TypeCards && len(s.Cards) > 0:
		return len(s.Cards)
	case s.Type == TypeTimeline && len(s.Events) > 0:
		return len(s.Events)
	default:
		return len(s.Bullets)
	}
}

// Split divides the slide into at most k slides of balanced size. The first
// keeps the title and key message; the rest are titled "X (cont.)" and carry
// no images.
func (s Slide) Split(k int) []Slide {
	n := s.ChunkLen()
	if k <= 1 || n <= 1 {
		return []Slide{s.Clone()}
	}
	if k > n {
		k = n
	}
	size := (n + k - 1) / k

	var out []Slide
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		part := s.Clone()
		switch {
		case s.Type == TypeAgenda:
			part.Items = part.Items[start:end]
		case s.Type == TypeCards && len(s.Cards) > 0:
			part.Cards = part.Cards[start:end]
		case s.Type == TypeTimeline && len(s.Events) > 0:
			part.Events = part.Events[start:end]
		default:
			part.Bullets = part.Bullets[start:end]
			if len(part.Icons) >= end {
				part.Icons = part.Icons[start:end]
			} else {
				part.Icons = nil
			}
		}
		if start > 0 {
			part.Title = ContinuationTitle(s.Title)
			part.KeyMessage = ""
			part.KeyMessageSourceKeys = nil
			part.Images = nil
			part.Emphasis = Emphasis{}
			if part.Type == TypeSplitImage {
				part.Type = TypeText
			}
		}
		out = append(out, part)
	}
	return out
}

// PaginateAgenda splits an agenda slide into pages of at most
// MaxAgendaItemsPage items titled "Agenda", "Agenda (cont.)", ...
func PaginateAgenda(s Slide) []Slide {
	if s.Title == "" {
		s.Title = DefaultAgendaTitle
	}
	n := len(s.Items)
	if n <= MaxAgendaItemsPage {
		return []Slide{s}
	}
	pages := (n + MaxAgendaItemsPage - 1) / MaxAgendaItemsPage
	out := make([]Slide, 0, pages)
	for p := 0; p < pages; p++ {
		end := (p + 1) * MaxAgendaItemsPage
		if end > n {
			end = n
		}
		page := s.Clone()
		page.Items = page.Items[p*MaxAgendaItemsPage : end]
		if p > 0 {
			page.Title = ContinuationTitle(s.Title)
		}
		out = append(out, page)
	}
	return out
}

// PaginateAgendas applies PaginateAgenda to every agenda slide.
func PaginateAgendas(slides []Slide) []Slide {
	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		if s.Type == TypeAgenda {
			out = append(out, PaginateAgenda(s)...)
			continue
		}
		out = append(out, s)
	}
	return out
}
