package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		contain string
		absent  string
	}{
		{"email", "contact sales@acme.com today", "[EMAIL:", "sales@acme.com"},
		{"phone", "call 555-123-4567", "[PHONE:", "555-123-4567"},
		{"card", "card 4111 1111 1111 1111", "[CC:REDACTED]", "4111"},
		{"ip", "host 10.0.0.12", "[IP:", "10.0.0.12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Text(tt.input, "salt")
			assert.Contains(t, out, tt.contain)
			assert.NotContains(t, out, tt.absent)
		})
	}
}

func TestText_KeepsPlainNumbers(t *testing.T) {
	assert.Equal(t, "Founded in 2010 with 85 staff", Text("Founded in 2010 with 85 staff", ""))
}

func TestText_StableHash(t *testing.T) {
	assert.Equal(t, Text("a@b.io", "x"), Text("a@b.io", "x"))
	assert.NotEqual(t, Text("a@b.io", "x"), Text("a@b.io", "y"))
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := Preview(long, "", 20)
	assert.Equal(t, 21, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))

	assert.Equal(t, "a b", Preview("  a \n b ", "", 0))
}
