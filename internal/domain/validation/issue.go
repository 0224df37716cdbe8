// Package validation checks slide specs for structural validity and fact
// traceability. Validators accumulate issues and never fail on bad content.
package validation

import (
	"fmt"
	"sort"

	"github.com/janhq/deck-server/internal/domain/facts"
)

// Severity of a validation issue. Only errors make a result not OK.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code identifies a class of issue.
type Code string

const (
	CodeInvalidSlideType    Code = "INVALID_SLIDE_TYPE"
	CodeInvalidLayoutHint   Code = "INVALID_LAYOUT_HINT"
	CodeInvalidTone         Code = "INVALID_TONE"
	CodeInvalidDensity      Code = "INVALID_DENSITY"
	CodeMissingTitle        Code = "MISSING_TITLE"
	CodeMissingContent      Code = "MISSING_VARIANT_CONTENT"
	CodeMultiSentence       Code = "KEY_MESSAGE_MULTI_SENTENCE"
	CodeTooManyBullets      Code = "TOO_MANY_BULLETS"
	CodeTooManyAgendaItems  Code = "TOO_MANY_AGENDA_ITEMS"
	CodeEmptyBullet         Code = "EMPTY_BULLET"
	CodeBulletTooLong       Code = "BULLET_TOO_LONG"
	CodeRawStructuredText   Code = "RAW_STRUCTURED_TEXT"
	CodeWeakBulletLead      Code = "WEAK_BULLET_LEAD"
	CodeInsightNotMarked    Code = "INSIGHT_NOT_MARKED"
	CodeTooManyImages       Code = "TOO_MANY_IMAGES"
	CodeImageNotAllowed     Code = "IMAGE_NOT_ALLOWED"
	CodeEmptySpec           Code = "EMPTY_SLIDE_SPEC"
	CodeSourcePathNotFound  Code = "SOURCE_PATH_NOT_FOUND"
	CodeMissingSourceKeys   Code = "MISSING_SOURCE_KEYS"
	CodeNumberNotInSource   Code = "NUMBER_NOT_IN_SOURCE"
	CodeUnsupportedNumber   Code = "UNSUPPORTED_NUMBER"
	CodeInventedNumber      Code = "INVENTED_NUMBER"
	CodeMissingPresentation Code = "MISSING_PRESENTATION_TITLE"
)

var factCodes = map[Code]bool{
	CodeSourcePathNotFound: true,
	CodeMissingSourceKeys:  true,
	CodeNumberNotInSource:  true,
	CodeUnsupportedNumber:  true,
	CodeInventedNumber:     true,
}

// IsFactCode reports whether code concerns fact traceability. Such issues are
// repaired by deletion rather than rewriting.
func IsFactCode(code Code) bool {
	return factCodes[code]
}

// Issue is the single structured representation of something being wrong.
// SlideIndex is -1 for deck-level issues.
type Issue struct {
	SlideIndex int      `json:"slideIndex"`
	Code       Code     `json:"code"`
	Message    string   `json:"message"`
	Path       string   `json:"path,omitempty"`
	Severity   Severity `json:"severity"`
}

func (i Issue) String() string {
	if i.Path != "" {
		return fmt.Sprintf("slide %d %s: %s (%s)", i.SlideIndex, i.Path, i.Message, i.Code)
	}
	return fmt.Sprintf("slide %d: %s (%s)", i.SlideIndex, i.Message, i.Code)
}

// Result is the outcome of one or more validators.
type Result struct {
	OK     bool    `json:"ok"`
	Issues []Issue `json:"issues"`
}

// NewResult computes OK from the issues.
func NewResult(issues []Issue) Result {
	ok := true
	for _, is := range issues {
		if is.Severity == SeverityError {
			ok = false
			break
		}
	}
	if issues == nil {
		issues = []Issue{}
	}
	return Result{OK: ok, Issues: issues}
}

// Merge concatenates results, ordering issues by slide index.
func Merge(results ...Result) Result {
	var all []Issue
	for _, r := range results {
		all = append(all, r.Issues...)
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].SlideIndex < all[b].SlideIndex })
	return NewResult(all)
}

// Errors returns only error-severity issues.
func (r Result) Errors() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			out = append(out, is)
		}
	}
	return out
}

// HasFactErrors reports whether any error concerns fact traceability.
func (r Result) HasFactErrors() bool {
	for _, is := range r.Errors() {
		if IsFactCode(is.Code) {
			return true
		}
	}
	return false
}

// FailingSlides returns the sorted indexes of slides with errors.
func (r Result) FailingSlides() []int {
	seen := map[int]bool{}
	var out []int
	for _, is := range r.Errors() {
		if is.SlideIndex >= 0 && !seen[is.SlideIndex] {
			seen[is.SlideIndex] = true
			out = append(out, is.SlideIndex)
		}
	}
	sort.Ints(out)
	return out
}

// ForSlide returns the issues recorded against one slide.
func (r Result) ForSlide(index int) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.SlideIndex == index {
			out = append(out, is)
		}
	}
	return out
}

// TopCodes returns up to n distinct error codes, most frequent first with
// ties in first-seen order.
func TopCodes(issues []Issue, n int) []string {
	counts := map[Code]int{}
	var order []Code
	for _, is := range issues {
		if is.Severity != SeverityError {
			continue
		}
		if counts[is.Code] == 0 {
			order = append(order, is.Code)
		}
		counts[is.Code]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if n > 0 && len(order) > n {
		order = order[:n]
	}
	out := make([]string, len(order))
	for i, c := range order {
		out[i] = string(c)
	}
	return out
}

// Context carries what validators need besides the slide spec.
type Context struct {
	Index *facts.Index
	// AllowedImages is the allow-list of source-derived image URLs.
	AllowedImages []string
	// Strict turns missing or unresolved source keys into errors.
	Strict bool
	// ExtraNumbers are numbers the numeric guard also accepts, such as those
	// in the user's instruction.
	ExtraNumbers facts.NumberSet
}

func (c Context) traceSeverity() Severity {
	if c.Strict {
		return SeverityError
	}
	return SeverityWarning
}

func (c Context) imageAllowed(url string) bool {
	for _, allowed := range c.AllowedImages {
		if allowed == url {
			return true
		}
	}
	return false
}
