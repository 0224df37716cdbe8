package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/retry"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"prose around", `Here you go: {"s":"brace } in string"} thanks`, `{"s":"brace } in string"}`, false},
		{"escaped quote", `{"s":"say \"hi\" {"}`, `{"s":"say \"hi\" {"}`, false},
		{"none", "sorry, I cannot help", "", true},
		{"unbalanced", `{"a":1`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ExtractJSON(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, llm.ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

type scriptedProvider struct {
	replies []any
	calls   int
	last    llm.ChatCompletionRequest
}

func (p *scriptedProvider) CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	p.last = req
	r := p.replies[p.calls]
	p.calls++
	switch v := r.(type) {
	case error:
		return nil, v
	case string:
		return &llm.ChatCompletionResponse{Choices: []llm.ChatCompletionChoice{{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: v}}}}, nil
	}
	return nil, errors.New("bad script")
}

func TestJSONCompleter(t *testing.T) {
	policy := retry.Policy{MaxRetries: 2, BackoffStrategy: retry.BackoffFixed}

	t.Run("retries provider 5xx", func(t *testing.T) {
		p := &scriptedProvider{replies: []any{
			&llm.ProviderError{Provider: "test", StatusCode: 503},
			"```json\n{\"slides\":[]}\n```",
		}}
		c := llm.NewJSONCompleter(p, "model-x", policy, 0)
		var out struct {
			Slides []any `json:"slides"`
		}
		err := c.CompleteJSON(context.Background(), llm.JSONRequest{Stage: "storyboard", Temperature: 0.1}, &out)
		require.NoError(t, err)
		assert.Equal(t, 2, p.calls)
		assert.Equal(t, "model-x", p.last.Model)
		require.NotNil(t, p.last.Temperature)
		assert.InDelta(t, 0.1, *p.last.Temperature, 1e-9)
	})

	t.Run("does not retry 400", func(t *testing.T) {
		p := &scriptedProvider{replies: []any{&llm.ProviderError{Provider: "test", StatusCode: 400}}}
		c := llm.NewJSONCompleter(p, "m", policy, 0)
		var out map[string]any
		err := c.CompleteJSON(context.Background(), llm.JSONRequest{Stage: "planner"}, &out)
		require.Error(t, err)
		assert.Equal(t, 1, p.calls)
	})

	t.Run("non JSON output fails without retry", func(t *testing.T) {
		p := &scriptedProvider{replies: []any{"no json here"}}
		c := llm.NewJSONCompleter(p, "m", policy, 0)
		var out map[string]any
		err := c.CompleteJSON(context.Background(), llm.JSONRequest{Stage: "polish"}, &out)
		assert.ErrorIs(t, err, llm.ErrNoJSON)
		assert.Equal(t, 1, p.calls)
	})
}
