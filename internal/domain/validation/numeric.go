package validation

import (
	"fmt"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/slide"
)

// Numbers is the whole-deck numeric guard: every meaningful number anywhere in
// generated text must exist in the source numbers.
func Numbers(spec slide.Spec, vctx Context) Result {
	allowed := vctx.Index.SourceNumbers()
	for tok := range vctx.ExtraNumbers {
		allowed[tok] = struct{}{}
	}

	var issues []Issue
	check := func(i int, path, text string) {
		for _, tok := range facts.MeaningfulNumbers(text) {
			if !allowed.Has(tok) {
				issues = append(issues, Issue{
					SlideIndex: i,
					Code:       CodeInventedNumber,
					Message:    fmt.Sprintf("number %q is not in the source data", tok),
					Path:       path,
					Severity:   SeverityError,
				})
			}
		}
	}

	check(-1, "presentationTitle", spec.PresentationTitle)
	for i, s := range spec.Slides {
		for _, f := range s.TextFields() {
			check(i, f.Path, f.Text)
		}
		check(i, "notes", s.Notes)
	}
	return NewResult(issues)
}

// All runs the schema, fact and numeric validators and merges their issues.
func All(spec slide.Spec, vctx Context) Result {
	return Merge(Schema(spec, vctx), Facts(spec, vctx), Numbers(spec, vctx))
}
