package validation

import (
	"fmt"
	"strings"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// Facts checks that every cited source key resolves and that every meaningful
// number in cited copy is backed by one of the cited facts.
func Facts(spec slide.Spec, vctx Context) Result {
	var issues []Issue
	for i, s := range spec.Slides {
		issues = append(issues, factSlide(i, s, vctx)...)
	}
	return NewResult(issues)
}

func factSlide(i int, s slide.Slide, vctx Context) []Issue {
	var issues []Issue
	add := func(code Code, path, msg string, sev Severity) {
		issues = append(issues, Issue{SlideIndex: i, Code: code, Message: msg, Path: path, Severity: sev})
	}

	for _, f := range s.TextFields() {
		if !checksFacts(f) {
			continue
		}

		var cited []*facts.Node
		for _, key := range f.SourceKeys {
			node, ok := vctx.Index.Get(key)
			if !ok {
				add(CodeSourcePathNotFound, f.Path, fmt.Sprintf("source path %q not found", key), vctx.traceSeverity())
				continue
			}
			cited = append(cited, node)
		}
		if f.Traced && len(f.SourceKeys) == 0 {
			add(CodeMissingSourceKeys, f.Path, "content has no sourceKeys", vctx.traceSeverity())
		}

		for _, tok := range facts.MeaningfulNumbers(f.Text) {
			if len(cited) == 0 {
				add(CodeUnsupportedNumber, f.Path, fmt.Sprintf("number %q has no cited fact", tok), SeverityError)
				continue
			}
			if !numberInFacts(tok, cited) {
				add(CodeNumberNotInSource, f.Path, fmt.Sprintf("number %q does not appear in cited facts", tok), SeverityError)
			}
		}
	}
	return issues
}

// checksFacts skips headings and agenda items, which never cite facts.
func checksFacts(f slide.TextField) bool {
	if f.Traced || len(f.SourceKeys) > 0 {
		return true
	}
	return f.Path == "keyMessage"
}

func numberInFacts(tok string, cited []*facts.Node) bool {
	for _, n := range cited {
		if strings.Contains(n.Text, tok) || facts.ContainsNumber(n.Text, tok) {
			return true
		}
	}
	return false
}
