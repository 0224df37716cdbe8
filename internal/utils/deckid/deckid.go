// Package deckid generates and parses prefixed ULID identifiers.
package deckid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes of the identifiers this service issues.
const (
	PrefixJob   = "deck_"
	PrefixError = "err_"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func next(t time.Time) ulid.ULID {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy)
}

// NewJob returns a deck_* job ID. IDs sort by creation time.
func NewJob() string {
	return PrefixJob + strings.ToLower(next(time.Now()).String())
}

// NewError returns an err_* ID used to correlate logged errors with responses.
func NewError() string {
	return PrefixError + strings.ToLower(next(time.Now()).String())
}

// IsJob reports whether value is a well-formed job ID.
func IsJob(value string) bool {
	if !strings.HasPrefix(value, PrefixJob) {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips a known prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	for _, p := range []string{PrefixJob, PrefixError} {
		value = strings.TrimPrefix(value, p)
	}
	return ulid.ParseStrict(strings.ToUpper(value))
}
