package llmprovider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/janhq/deck-server/internal/domain/llm"
)

// Client implements llm.Provider against an OpenAI-compatible
// /v1/chat/completions endpoint such as jan llm-api.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

// NewClient creates a Resty-backed client. apiKey is optional; a caller token
// forwarded through the context takes precedence.
func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(75 * time.Second)
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// CreateChatCompletion calls /v1/chat/completions.
func (c *Client) CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	req.Stream = false
	var completion llm.ChatCompletionResponse
	request := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion)

	if token := llm.AuthTokenFromContext(ctx); token != "" {
		request.SetHeader("Authorization", token)
	}

	resp, err := request.Post("/v1/chat/completions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &llm.ProviderError{Provider: "llm", StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}
	return &completion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Provider = (*Client)(nil)
