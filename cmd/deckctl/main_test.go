package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const supplier = `{
  "Company Name": "Acme Studio",
  "company_profile": {
    "founded": 2010,
    "headquarters": "Shenzhen, China",
    "description": "Acme Studio designs industrial robot arms for electronics assembly lines."
  },
  "products": [{"name": "Arm X1"}, {"name": "Arm X2"}],
  "certifications": ["ISO 9001", "CE"],
  "team_size": 85
}`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "supplier.json")
	require.NoError(t, os.WriteFile(path, []byte(supplier), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFactsCommand(t *testing.T) {
	input := writeInput(t)

	out, err := execute(t, "facts", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, out, "vocabulary:")
	assert.Contains(t, out, "Acme Studio")

	out, err = execute(t, "facts", "--input", input, "--format", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"vocabulary"`)

	_, err = execute(t, "facts", "--input", input, "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = execute(t, "facts")
	assert.Error(t, err, "input is required")
}

func TestOutlineCommand(t *testing.T) {
	out, err := execute(t, "outline", "--input", writeInput(t), "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Acme Studio"`)
	assert.Contains(t, out, `"sections"`)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	for _, name := range []string{"# patches", "# plan", "# slides"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "schema", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, `"properties"`)

	_, err = execute(t, "schema", "nope")
	assert.ErrorContains(t, err, "unknown schema")
}

func TestGenerateCommand_Offline(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out", "deck.pdf")

	out, err := execute(t, "generate", "--input", writeInput(t), "--out", outPath, "--offline", "--theme", "paper")
	require.NoError(t, err)
	assert.Contains(t, out, `"Acme Studio"`)
	assert.Contains(t, out, "theme paper")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, "generate", "--input", writeInput(t), "--out", outPath, "--offline", "--theme", "neon")
	assert.ErrorContains(t, err, "unknown theme")
}
