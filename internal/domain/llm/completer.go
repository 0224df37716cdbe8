package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/janhq/deck-server/internal/domain/retry"
)

// ErrNoJSON is returned when a completion holds no JSON object.
var ErrNoJSON = errors.New("completion contains no JSON object")

// JSONRequest is one structured call: role-tagged messages in, one JSON
// object out.
type JSONRequest struct {
	Stage       string
	Messages    []ChatMessage
	Temperature float64
	Timeout     time.Duration
}

// Completer answers a JSONRequest by decoding the model's JSON object into out.
type Completer interface {
	CompleteJSON(ctx context.Context, req JSONRequest, out any) error
}

// JSONCompleter adapts a chat Provider to Completer. Transport failures are
// retried under policy within the request timeout; malformed output is not.
type JSONCompleter struct {
	provider  Provider
	model     string
	policy    retry.Policy
	maxTokens int
}

// NewJSONCompleter wraps provider.
func NewJSONCompleter(provider Provider, model string, policy retry.Policy, maxTokens int) *JSONCompleter {
	return &JSONCompleter{provider: provider, model: model, policy: policy, maxTokens: maxTokens}
}

// CompleteJSON implements Completer.
func (c *JSONCompleter) CompleteJSON(ctx context.Context, req JSONRequest, out any) error {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	temperature := req.Temperature
	chat := ChatCompletionRequest{
		Model:          c.model,
		Messages:       req.Messages,
		Temperature:    &temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
	if c.maxTokens > 0 {
		chat.MaxTokens = &c.maxTokens
	}

	resp, err := retry.ExecuteWithResult(ctx, c.policy, func(ctx context.Context, attempt int) (*ChatCompletionResponse, error) {
		return c.provider.CreateChatCompletion(ctx, chat)
	})
	if err != nil {
		return fmt.Errorf("%s completion: %w", req.Stage, err)
	}
	if err := DecodeJSON(resp.Content(), out); err != nil {
		return fmt.Errorf("%s completion: %w", req.Stage, err)
	}
	return nil
}

// DecodeJSON extracts the first JSON object from model output and decodes it.
func DecodeJSON(content string, out any) error {
	raw, err := ExtractJSON(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

// ExtractJSON returns the first balanced JSON object in content, ignoring
// code fences and any prose around it.
func ExtractJSON(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(s[start : i+1]), nil
			}
		}
	}
	return nil, ErrNoJSON
}
