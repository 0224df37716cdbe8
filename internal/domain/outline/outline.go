// Package outline buckets facts into a fixed outline without any generative
// step. Its draft is the content of last resort when every model call fails.
package outline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// MaxBulletsPerSection caps the candidates kept per section.
const MaxBulletsPerSection = 6

// maxImagesPerSection mirrors the per-slide image cap.
const maxImagesPerSection = slide.MaxImagesPerSlide

// Section is one bucket of the draft.
type Section struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Goal    string         `json:"goal"`
	Bullets []slide.Bullet `json:"bullets"`
	Images  []string       `json:"images,omitempty"`
}

// SourceKeys returns every key cited by the section bullets.
func (s Section) SourceKeys() []string {
	var out []string
	seen := map[string]bool{}
	for _, b := range s.Bullets {
		for _, k := range b.SourceKeys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// Draft is the deterministic outline.
type Draft struct {
	Title          string    `json:"title"`
	TitleSourceKey string    `json:"titleSourceKey,omitempty"`
	Sections       []Section `json:"sections"`
	// Images is the allow-list of source-derived image URLs.
	Images []string `json:"images"`
}

var (
	reElement  = regexp.MustCompile(`^(.*#\d+)\.`)
	reItemTag  = regexp.MustCompile(` #\d+`)
	reImageURL = regexp.MustCompile(`(?i)^https?://\S+\.(?:png|jpe?g|gif|webp|svg|bmp)(?:\?\S*)?$`)
	reHTTPURL  = regexp.MustCompile(`(?i)^https?://\S+$`)
)

type candidate struct {
	path  string
	label string
	text  string
	keys  []string
	image bool
	// parts holds element leaf values until the element is complete.
	parts []string
}

// Build drafts the outline. Identical indexes always yield identical drafts.
func Build(idx *facts.Index) Draft {
	d := Draft{Title: slide.DefaultProfileTitle, Images: []string{}}
	if n, ok := detectTitle(idx); ok {
		d.Title = n.Text
		d.TitleSourceKey = n.SourcePath
	}

	buckets := make([][]*candidate, len(sectionDefs))
	images := make([][]string, len(sectionDefs))
	seenImage := map[string]bool{}
	for _, c := range candidates(idx) {
		i := classify(c)
		if c.image {
			if !seenImage[c.text] {
				seenImage[c.text] = true
				d.Images = append(d.Images, c.text)
				if len(images[i]) < maxImagesPerSection {
					images[i] = append(images[i], c.text)
				}
			}
			continue
		}
		buckets[i] = append(buckets[i], c)
	}

	for i, def := range sectionDefs {
		if len(buckets[i]) == 0 {
			continue
		}
		sec := Section{ID: def.id, Title: def.title, Goal: def.goal, Images: images[i]}
		for _, c := range buckets[i] {
			if len(sec.Bullets) == MaxBulletsPerSection {
				break
			}
			sec.Bullets = append(sec.Bullets, slide.Bullet{Text: c.text, SourceKeys: c.keys, Kind: slide.KindFact})
		}
		d.Sections = append(d.Sections, sec)
	}
	return d
}

func candidates(idx *facts.Index) []*candidate {
	var (
		out    []*candidate
		groups = map[string]*candidate{}
	)
	for _, n := range idx.Nodes() {
		if n.RawType == facts.RawArray && !n.ScalarList {
			continue
		}
		if n.ArrayPath != "" {
			if parent, ok := idx.Get(n.ArrayPath); ok && parent.ScalarList {
				continue
			}
		}
		if !keep(n) {
			continue
		}

		if isImage(n) {
			out = append(out, &candidate{path: n.SourcePath, label: label(n), text: strings.TrimSpace(n.Text), image: true})
			continue
		}

		// leaves of one array element become a single bullet
		if m := reElement.FindStringSubmatch(n.SourcePath); m != nil && n.RawType != facts.RawArray {
			g, ok := groups[m[1]]
			if !ok {
				g = &candidate{path: m[1], label: label(&facts.Node{SourcePath: m[1]})}
				groups[m[1]] = g
				out = append(out, g)
			}
			g.parts = append(g.parts, strings.TrimSpace(n.Text))
			g.keys = append(g.keys, n.SourcePath)
			continue
		}

		text := narrate(n)
		if text == "" {
			continue
		}
		out = append(out, &candidate{path: n.SourcePath, label: label(n), text: text, keys: []string{n.SourcePath}})
	}

	kept := out[:0]
	for _, c := range out {
		if c.parts != nil {
			c.text = truncate(elementText(c.parts), slide.DefaultMaxChars)
		}
		if c.text != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

func elementText(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + " (" + strings.Join(parts[1:], "; ") + ")"
}

func classify(c *candidate) int {
	pathLower := strings.ToLower(c.path)
	labelLower := strings.ToLower(c.label)
	pathTokens := facts.Tokenize(c.path)
	labelTokens := facts.Tokenize(c.label)

	best, bestScore := 0, 0
	for i, def := range sectionDefs {
		score := 0
		for _, kw := range def.keywords {
			if matches(kw, pathTokens, pathLower) {
				score++
			}
			if matches(kw, labelTokens, labelLower) {
				score += 2
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func matches(kw string, tokens []string, lower string) bool {
	if r, _ := utf8.DecodeRuneInString(kw); facts.IsWide(r) {
		return strings.Contains(lower, kw)
	}
	for _, t := range tokens {
		if t == kw || t == kw+"s" || t == kw+"es" {
			return true
		}
		if strings.HasSuffix(kw, "y") && t == kw[:len(kw)-1]+"ies" {
			return true
		}
	}
	return false
}

func containsWord(words []string, n *facts.Node) bool {
	lower := strings.ToLower(n.SourcePath)
	for _, w := range words {
		if matches(w, n.Tokens, lower) {
			return true
		}
	}
	return false
}

func keep(n *facts.Node) bool {
	if n.IsEmpty() {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(n.Text))
	if placeholders[text] {
		return false
	}
	if n.RawType == facts.RawBool && text == "false" {
		return false
	}
	if containsWord(negativeWords, n) {
		return false
	}
	if isZero(text) && containsWord(countWords, n) {
		return false
	}
	return true
}

func isZero(text string) bool {
	text = strings.TrimSuffix(strings.ReplaceAll(text, ",", ""), "%")
	f, err := strconv.ParseFloat(text, 64)
	return err == nil && f == 0
}

func isImage(n *facts.Node) bool {
	text := strings.TrimSpace(n.Text)
	if reImageURL.MatchString(text) {
		return true
	}
	return reHTTPURL.MatchString(text) && containsWord(imageWords, n)
}

// label is the human-readable name of a fact: its last path segment without
// array tags, preferring the first part of bilingual "english / 中文" keys.
func label(n *facts.Node) string {
	seg := n.SourcePath
	if i := strings.LastIndex(seg, "."); i >= 0 {
		seg = seg[i+1:]
	}
	seg = strings.TrimSpace(reItemTag.ReplaceAllString(seg, ""))
	if head, _, ok := strings.Cut(seg, " / "); ok && strings.TrimSpace(head) != "" {
		seg = strings.TrimSpace(head)
	}
	return capitalize(seg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// narrate renders one fact as a bullet candidate.
func narrate(n *facts.Node) string {
	lbl := label(n)
	// a label carrying its own figures would cite numbers the fact lacks
	if len(facts.MeaningfulNumbers(lbl)) > 0 {
		lbl = ""
	}
	text := strings.TrimSpace(n.Text)
	wide := wideLabel(lbl)

	var out string
	switch {
	case n.RawType == facts.RawArray:
		items := listItems(text)
		switch {
		case len(items) == 0:
			return ""
		case lbl == "":
			out = joinList(items, wide)
		case len(items) == 1 || wide:
			out = pair(lbl, joinList(items, wide))
		default:
			out = lbl + " include " + joinList(items, false)
		}
	case n.RawType == facts.RawBool:
		if lbl == "" {
			return ""
		}
		if wide {
			out = pair(lbl, "是")
		} else {
			out = pair(lbl, "yes")
		}
	case isProse(text) || lbl == "":
		out = text
	case n.RawType == facts.RawNumber || wide:
		out = pair(lbl, text)
	case pluralLabel(lbl):
		out = lbl + " are " + text
	default:
		out = lbl + " is " + text
	}
	return truncate(out, slide.DefaultMaxChars)
}

// pair joins a label and a value with the colon of the label's script.
func pair(lbl, value string) string {
	if wideLabel(lbl) {
		return lbl + "：" + value
	}
	return lbl + ": " + value
}

func wideLabel(lbl string) bool {
	for _, r := range lbl {
		if facts.IsWide(r) {
			return true
		}
	}
	return false
}

// singularS lists label words that end in "s" but take "is".
var singularS = map[string]bool{
	"headquarters": true, "status": true, "address": true, "business": true, "process": true,
	"news": true, "series": true, "basis": true, "analysis": true, "class": true, "access": true,
	"progress": true, "campus": true, "bonus": true, "scope of business": true,
}

func pluralLabel(lbl string) bool {
	l := strings.ToLower(strings.TrimSpace(lbl))
	if singularS[l] {
		return false
	}
	words := strings.Fields(l)
	if len(words) == 0 {
		return false
	}
	last := words[len(words)-1]
	if singularS[last] || strings.HasSuffix(last, "ss") || strings.HasSuffix(last, "us") || strings.HasSuffix(last, "is") {
		return false
	}
	return strings.HasSuffix(last, "s")
}

func listItems(text string) []string {
	var out []string
	for _, item := range strings.Split(text, "; ") {
		item = strings.TrimSpace(item)
		if item != "" && !placeholders[strings.ToLower(item)] {
			out = append(out, item)
		}
	}
	return out
}

func joinList(items []string, wide bool) string {
	switch {
	case len(items) == 0:
		return ""
	case len(items) == 1:
		return items[0]
	case wide:
		return strings.Join(items, "、")
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func isProse(text string) bool {
	return len(strings.Fields(text)) >= 6 || utf8.RuneCountInString(text) > 50
}

// truncate shortens text to max runes, cutting at a word boundary when one
// exists in the second half. The cut never lands inside a number.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	end := max - 1
	for i := end - 1; i > end/2; i-- {
		if runes[i] == ' ' {
			end = i
			break
		}
	}
	for end > 0 && numberRune(runes[end-1]) && numberRune(runes[end]) {
		end--
	}
	if end == 0 {
		end = max - 1
	}
	return strings.TrimRight(string(runes[:end]), " ,;:，") + "…"
}

func numberRune(r rune) bool {
	return unicode.IsDigit(r) || r == ',' || r == '.' || r == '%'
}

func detectTitle(idx *facts.Index) (*facts.Node, bool) {
	for _, pattern := range titlePatterns {
		for _, n := range idx.Nodes() {
			if n.RawType != facts.RawString || n.IsEmpty() || n.ArrayPath != "" || strings.Contains(n.SourcePath, " #") {
				continue
			}
			if placeholders[strings.ToLower(strings.TrimSpace(n.Text))] {
				continue
			}
			seg := strings.ToLower(n.SourcePath)
			if i := strings.LastIndex(seg, "."); i >= 0 {
				seg = seg[i+1:]
			}
			if pattern == "name" {
				if seg == "name" && n.Depth <= 2 {
					return n, true
				}
				continue
			}
			if strings.Contains(seg, pattern) {
				return n, true
			}
		}
	}
	return nil, false
}
