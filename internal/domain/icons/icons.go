// Package icons assigns icons from a closed local catalog by keyword match.
package icons

import (
	"strings"
	"unicode/utf8"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// Icon is one catalog entry. Symbol is the short mark a renderer draws.
type Icon struct {
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Keywords []string `json:"keywords"`
}

// Default is used when no keyword matches.
const Default = "star"

// Catalog is ordered; the first entry with the highest score wins.
var Catalog = []Icon{
	{Name: "factory", Symbol: "F", Keywords: []string{"factory", "plant", "manufacturing", "production", "capacity", "工厂", "生产", "产能", "制造"}},
	{Name: "cog", Symbol: "T", Keywords: []string{"technology", "engineering", "equipment", "process", "automation", "machine", "技术", "设备", "工艺"}},
	{Name: "flask", Symbol: "R", Keywords: []string{"research", "patent", "lab", "innovation", "develop", "研发", "专利", "创新"}},
	{Name: "box", Symbol: "P", Keywords: []string{"product", "products", "model", "catalog", "sku", "range", "产品", "型号"}},
	{Name: "award", Symbol: "A", Keywords: []string{"award", "certified", "certification", "certificate", "iso", "quality", "认证", "质量", "奖"}},
	{Name: "shield", Symbol: "S", Keywords: []string{"safety", "security", "compliance", "standard", "warranty", "安全", "合规", "标准"}},
	{Name: "globe", Symbol: "G", Keywords: []string{"export", "global", "international", "countries", "markets", "market", "worldwide", "出口", "全球", "市场"}},
	{Name: "users", Symbol: "U", Keywords: []string{"team", "employees", "staff", "people", "engineers", "customers", "clients", "团队", "员工", "客户"}},
	{Name: "handshake", Symbol: "H", Keywords: []string{"partner", "partners", "partnership", "cooperation", "distributor", "合作", "伙伴"}},
	{Name: "chart", Symbol: "C", Keywords: []string{"revenue", "growth", "sales", "turnover", "share", "increase", "营收", "增长", "销售"}},
	{Name: "calendar", Symbol: "D", Keywords: []string{"founded", "established", "since", "history", "year", "years", "成立", "历史"}},
	{Name: "pin", Symbol: "L", Keywords: []string{"headquarters", "located", "location", "address", "office", "总部", "地址", "位于"}},
	{Name: "truck", Symbol: "L", Keywords: []string{"logistics", "delivery", "shipping", "lead", "supply", "物流", "交付", "供应"}},
	{Name: "leaf", Symbol: "E", Keywords: []string{"sustainability", "green", "environmental", "energy", "eco", "环保", "绿色", "节能"}},
	{Name: "star", Symbol: "*", Keywords: []string{"highlight", "advantage", "unique", "best", "leading", "优势", "亮点", "领先"}},
}

var byName = func() map[string]Icon {
	m := make(map[string]Icon, len(Catalog))
	for _, ic := range Catalog {
		m[ic.Name] = ic
	}
	return m
}()

// Lookup returns the catalog entry for name, falling back to Default.
func Lookup(name string) Icon {
	if ic, ok := byName[name]; ok {
		return ic
	}
	return byName[Default]
}

// Has reports whether name is in the catalog.
func Has(name string) bool {
	_, ok := byName[name]
	return ok
}

// Names lists the catalog in order.
func Names() []string {
	out := make([]string, len(Catalog))
	for i, ic := range Catalog {
		out[i] = ic.Name
	}
	return out
}

// Match picks the icon whose keywords best overlap text.
func Match(text string) string {
	lower := strings.ToLower(text)
	tokens := facts.Tokenize(text)

	best, bestScore := Default, 0
	for _, ic := range Catalog {
		score := 0
		for _, kw := range ic.Keywords {
			if keywordIn(kw, tokens, lower) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = ic.Name, score
		}
	}
	return best
}

func keywordIn(kw string, tokens []string, lower string) bool {
	if r, _ := utf8.DecodeRuneInString(kw); facts.IsWide(r) {
		return strings.Contains(lower, kw)
	}
	for _, t := range tokens {
		if t == kw || t == kw+"s" {
			return true
		}
	}
	return false
}

// Assign returns a copy of spec with icons on every content slide: one per
// card for card slides, one per bullet otherwise. Icons already in the
// catalog are kept.
func Assign(spec slide.Spec) slide.Spec {
	out := spec.Clone()
	for i := range out.Slides {
		s := &out.Slides[i]
		switch s.Type {
		case slide.TypeTitle, slide.TypeSection, slide.TypeAgenda:
			continue
		case slide.TypeCards:
			for j := range s.Cards {
				if !Has(s.Cards[j].Icon) {
					s.Cards[j].Icon = Match(s.Cards[j].Title + " " + s.Cards[j].Text)
				}
			}
		}

		icons := make([]string, len(s.Bullets))
		for j, b := range s.Bullets {
			if j < len(s.Icons) && Has(s.Icons[j]) {
				icons[j] = s.Icons[j]
				continue
			}
			icons[j] = Match(b.Text)
		}
		if len(icons) == 0 {
			icons = []string{Match(s.Title + " " + s.KeyMessage)}
		}
		s.Icons = icons
	}
	return out
}
