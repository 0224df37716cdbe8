// Package genservice is the HTTP client of the remote deck generation service.
package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/janhq/deck-server/internal/domain/remote"
)

// Client implements remote.Service.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		httpClient.SetHeader("X-API-KEY", apiKey)
	}
	return &Client{httpClient: httpClient}
}

type createResponse struct {
	GenerationID string `json:"generationId"`
	ID           string `json:"id"`
}

// Create submits a generation and returns its id.
func (c *Client) Create(ctx context.Context, req remote.Request) (string, error) {
	var out createResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		ForceContentType("application/json").
		Post("/v1/generations")
	if err != nil {
		return "", fmt.Errorf("create generation: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Op: "create", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	id := out.GenerationID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return "", fmt.Errorf("create generation: response has no generation id")
	}
	return id, nil
}

type pollResponse struct {
	GenerationID string          `json:"generationId"`
	Status       string          `json:"status"`
	URL          string          `json:"url"`
	GammaURL     string          `json:"gammaUrl"`
	ExportURL    string          `json:"exportUrl"`
	Progress     *int            `json:"progress"`
	Error        json.RawMessage `json:"error"`
}

// Poll fetches the current state of a generation.
func (c *Client) Poll(ctx context.Context, id string) (remote.Generation, error) {
	var out pollResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/v1/generations/{id}")
	if err != nil {
		return remote.Generation{}, fmt.Errorf("poll generation: %w", err)
	}
	if resp.IsError() {
		return remote.Generation{}, &StatusError{Op: "poll", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	gen := remote.Generation{
		ID:        id,
		Status:    remote.MapStatus(out.Status),
		URL:       out.URL,
		ExportURL: out.ExportURL,
		Error:     errorText(out.Error),
		Progress:  out.Progress,
	}
	if gen.URL == "" {
		gen.URL = out.GammaURL
	}
	return gen, nil
}

// errorText accepts either a string or an object with a message.
func errorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("generation service %s: status %d: %s", e.Op, e.StatusCode, body)
}

var _ remote.Service = (*Client)(nil)
