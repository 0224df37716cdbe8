package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// Severity indicates how a stage error is handled.
type Severity string

const (
	SeverityRetryable Severity = "retryable" // Retry within the stage
	SeverityFallback  Severity = "fallback"  // Use the deterministic fallback
	SeveritySkippable Severity = "skippable" // Skip the stage, keep input
	SeverityFatal     Severity = "fatal"     // Fail the whole run
)

// IsRetryable returns true if the error can be retried.
func (s Severity) IsRetryable() bool {
	return s == SeverityRetryable
}

// IsFatal returns true if the error should fail the run.
func (s Severity) IsFatal() bool {
	return s == SeverityFatal
}

// Stage error codes.
const (
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeBudget        = "BUDGET_EXHAUSTED"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeRateLimit     = "RATE_LIMIT"
	ErrCodeInvalidOutput = "INVALID_OUTPUT"
	ErrCodeEmptyOutput   = "EMPTY_OUTPUT"
	ErrCodeOffline       = "OFFLINE"
	ErrCodeUnresolved    = "ISSUES_REMAIN"
)

// StageError is a recoverable failure of one generative stage. It is logged
// and recorded in the trace but never returned from Run.
type StageError struct {
	Stage    Stage    `json:"stage"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Cause    error    `json:"-"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.Retryable.
func (e *StageError) IsRetryable() bool {
	return e.Severity.IsRetryable()
}

// NewStageError creates a stage error.
func NewStageError(stage Stage, code, message string, severity Severity) *StageError {
	return &StageError{Stage: stage, Code: code, Message: message, Severity: severity}
}

// WithCause adds an underlying cause to the error.
func (e *StageError) WithCause(cause error) *StageError {
	e.Cause = cause
	return e
}

// classify turns a completer error into a StageError with the fallback
// severity; by the time it reaches a stage, transport retries are spent.
func classify(stage Stage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}

	var pe *llm.ProviderError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewStageError(stage, ErrCodeTimeout, "stage timed out", SeverityFallback).WithCause(err)
	case errors.As(err, &pe) && pe.StatusCode == 429:
		return NewStageError(stage, ErrCodeRateLimit, "provider rate limited", SeverityFallback).WithCause(err)
	case errors.As(err, &pe):
		return NewStageError(stage, ErrCodeProvider, "provider returned an error", SeverityFallback).WithCause(err)
	case errors.Is(err, llm.ErrNoJSON), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return NewStageError(stage, ErrCodeInvalidOutput, "completion is not the expected JSON", SeverityFallback).WithCause(err)
	default:
		return NewStageError(stage, ErrCodeProvider, "completion failed", SeverityFallback).WithCause(err)
	}
}

// FailureError is the one error Run returns: validation issues survived the
// repair loop and the safety reduction.
type FailureError struct {
	Reason string             `json:"reason"`
	Codes  []string           `json:"codes"`
	Issues []validation.Issue `json:"issues"`
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	if len(e.Codes) == 0 {
		return "deck generation failed: " + e.Reason
	}
	return fmt.Sprintf("deck generation failed: %s (top issues: %s)", e.Reason, strings.Join(e.Codes, ", "))
}

func newFailure(reason string, issues []validation.Issue, topN int) *FailureError {
	return &FailureError{Reason: reason, Codes: validation.TopCodes(issues, topN), Issues: issues}
}

// IsFailure reports whether err is a FailureError.
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}
