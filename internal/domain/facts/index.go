// Package facts flattens an arbitrary business-facts JSON document into a
// path-keyed lookup table. Every later stage references facts only through it.
package facts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// RawType is the JSON kind a fact was extracted from.
type RawType string

const (
	RawString RawType = "string"
	RawNumber RawType = "number"
	RawBool   RawType = "bool"
	RawArray  RawType = "array"
	RawNull   RawType = "null"
)

// Node is one addressable fact.
type Node struct {
	Key        string   `json:"key"`
	Value      any      `json:"value"`
	SourcePath string   `json:"sourcePath"`
	Text       string   `json:"text"`
	Tokens     []string `json:"tokens"`
	RawType    RawType  `json:"rawType"`
	Depth      int      `json:"depth"`
	// ArrayPath is set when the node is a direct element of an array node.
	ArrayPath string `json:"arrayPath,omitempty"`
	// ScalarList marks array nodes whose elements are all scalars.
	ScalarList bool `json:"scalarList,omitempty"`
}

// IsEmpty reports whether the node carries no usable text.
func (n *Node) IsEmpty() bool {
	return n == nil || strings.TrimSpace(n.Text) == ""
}

// Index maps normalized source paths to facts. It is built once per request
// and never mutated afterwards.
type Index struct {
	nodes   map[string]*Node
	order   []string
	aliases map[string]string
}

// Entry is one line of the vocabulary handed to generation stages.
type Entry struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

var (
	reSlash  = regexp.MustCompile(`\s*/\s*`)
	reSpaces = regexp.MustCompile(`\s+`)
	reArrow  = regexp.MustCompile(`\s*>\s*`)
	reDot    = regexp.MustCompile(`\s*\.\s*`)
	reItem   = regexp.MustCompile(` #\d+`)

	keyReplacer = strings.NewReplacer("_", " ", "-", " ")
)

// NormalizeKey turns a raw JSON key into its human-readable form:
// underscores and dashes become spaces and slashes get single spaces around them.
func NormalizeKey(key string) string {
	key = keyReplacer.Replace(key)
	key = reSlash.ReplaceAllString(key, " / ")
	key = reSpaces.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// lookupKey is the case-insensitive form used for alias resolution. Both "."
// and ">" are accepted as segment separators.
func lookupKey(path string) string {
	path = reArrow.ReplaceAllString(path, ".")
	path = keyReplacer.Replace(path)
	path = reSlash.ReplaceAllString(path, " / ")
	path = reSpaces.ReplaceAllString(path, " ")
	path = reDot.ReplaceAllString(path, ".")
	return strings.ToLower(strings.TrimSpace(path))
}

// BuildFromJSON decodes data and builds its index.
func BuildFromJSON(data []byte) (*Index, error) {
	root, err := DecodeOrdered(data)
	if err != nil {
		return nil, err
	}
	return Build(root), nil
}

// Build walks an already decoded JSON value.
func Build(root any) *Index {
	idx := &Index{
		nodes:   make(map[string]*Node),
		aliases: make(map[string]string),
	}
	idx.walk(root, nil, nil, "", 0, "")
	return idx
}

func (idx *Index) walk(v any, path, raw []string, key string, depth int, arrayPath string) {
	if ms, ok := members(v); ok {
		for _, m := range ms {
			seg := NormalizeKey(m.key)
			if seg == "" {
				seg = strings.TrimSpace(m.key)
			}
			if seg == "" {
				continue
			}
			idx.walk(m.value, appendSeg(path, seg), appendSeg(raw, m.key), m.key, depth+1, "")
		}
		return
	}

	switch val := v.(type) {
	case []any:
		arrPath := ""
		if len(path) > 0 {
			arrPath = idx.add(&Node{
				Key:        key,
				Value:      plain(val),
				Text:       renderText(val),
				RawType:    RawArray,
				Depth:      depth,
				ArrayPath:  arrayPath,
				ScalarList: allScalars(val),
			}, path, raw)
		}
		for i, item := range val {
			label := fmt.Sprintf("#%d", i+1)
			idx.walk(item, itemPath(path, label), itemPath(raw, label), key, depth+1, arrPath)
		}
	default:
		if len(path) == 0 {
			path = []string{"value"}
			raw = path
		}
		idx.add(&Node{
			Key:       key,
			Value:     plain(val),
			Text:      renderText(val),
			RawType:   scalarType(val),
			Depth:     depth,
			ArrayPath: arrayPath,
		}, path, raw)
	}
}

// add registers the node under a unique canonical path plus its aliases and
// returns the canonical path.
func (idx *Index) add(node *Node, path, raw []string) string {
	canonical := strings.Join(path, ".")
	if _, taken := idx.nodes[canonical]; taken {
		base := canonical
		for n := 2; ; n++ {
			canonical = fmt.Sprintf("%s (%d)", base, n)
			if _, taken := idx.nodes[canonical]; !taken {
				break
			}
		}
	}

	node.SourcePath = canonical
	node.Tokens = Tokenize(canonical)
	idx.nodes[canonical] = node
	idx.order = append(idx.order, canonical)

	idx.alias(canonical, canonical)
	idx.alias(strings.Join(raw, "."), canonical)
	// Array indices collapse to the parent label, first element wins.
	idx.alias(reItem.ReplaceAllString(canonical, ""), canonical)
	return canonical
}

func (idx *Index) alias(path, canonical string) {
	key := lookupKey(path)
	if key == "" {
		return
	}
	if _, exists := idx.aliases[key]; !exists {
		idx.aliases[key] = canonical
	}
}

// Get resolves a path (canonical, raw, or human-readable alias) to its fact.
func (idx *Index) Get(path string) (*Node, bool) {
	if idx == nil {
		return nil, false
	}
	if n, ok := idx.nodes[path]; ok {
		return n, true
	}
	if canonical, ok := idx.aliases[lookupKey(path)]; ok {
		return idx.nodes[canonical], true
	}
	return nil, false
}

// Has reports whether path resolves.
func (idx *Index) Has(path string) bool {
	_, ok := idx.Get(path)
	return ok
}

// Canonical resolves path to the canonical source path.
func (idx *Index) Canonical(path string) (string, bool) {
	n, ok := idx.Get(path)
	if !ok {
		return "", false
	}
	return n.SourcePath, true
}

// Nodes returns every fact in registration order.
func (idx *Index) Nodes() []*Node {
	if idx == nil {
		return nil
	}
	out := make([]*Node, 0, len(idx.order))
	for _, p := range idx.order {
		out = append(out, idx.nodes[p])
	}
	return out
}

// Paths returns canonical paths in registration order.
func (idx *Index) Paths() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.order...)
}

// Len returns the number of facts.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// Vocabulary is the compact path/value document generation stages may cite.
// Elements of scalar lists are folded into their list entry.
func (idx *Index) Vocabulary() []Entry {
	var out []Entry
	for _, n := range idx.Nodes() {
		if n.IsEmpty() {
			continue
		}
		if n.ArrayPath != "" {
			if parent, ok := idx.nodes[n.ArrayPath]; ok && parent.ScalarList {
				continue
			}
		}
		if n.RawType == RawArray && !n.ScalarList {
			continue
		}
		out = append(out, Entry{Path: n.SourcePath, Value: n.Text})
	}
	return out
}

// SourceNumbers collects every numeric token in any fact text or path, so
// copy may cite "2023 revenue" by its key as well as its value.
func (idx *Index) SourceNumbers() NumberSet {
	set := NumberSet{}
	for _, n := range idx.Nodes() {
		set.AddText(n.Text)
		set.AddText(n.SourcePath)
	}
	return set
}

// Tokenize splits text into lowercase word tokens. Runs of CJK characters are
// kept as single tokens so keyword matching can use substring checks.
func Tokenize(text string) []string {
	var (
		tokens []string
		cur    strings.Builder
		curCJK bool
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case IsWide(r):
			if !curCJK {
				flush()
			}
			curCJK = true
			cur.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if curCJK {
				flush()
			}
			curCJK = false
			cur.WriteRune(r)
		default:
			flush()
			curCJK = false
		}
	}
	flush()
	return tokens
}

// IsWide reports whether r is a full-width CJK character.
func IsWide(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func appendSeg(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func itemPath(path []string, label string) []string {
	if len(path) == 0 {
		return []string{label}
	}
	out := make([]string, len(path))
	copy(out, path)
	out[len(out)-1] = out[len(out)-1] + " " + label
	return out
}

func scalarType(v any) RawType {
	switch v.(type) {
	case nil:
		return RawNull
	case bool:
		return RawBool
	case json.Number, float64, float32, int, int64, int32:
		return RawNumber
	default:
		return RawString
	}
}

func allScalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case []any, object, map[string]any:
			return false
		}
	}
	return true
}

func renderText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if t := renderText(item); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "; ")
	default:
		if ms, ok := members(val); ok {
			parts := make([]string, 0, len(ms))
			for _, m := range ms {
				if t := renderText(m.value); t != "" {
					parts = append(parts, t)
				}
			}
			return strings.Join(parts, ", ")
		}
		return fmt.Sprint(val)
	}
}
