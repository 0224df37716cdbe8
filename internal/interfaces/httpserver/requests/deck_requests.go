package requests

import "encoding/json"

// CreateDeckRequest is the body of POST /v1/decks.
type CreateDeckRequest struct {
	// Prompt is an optional instruction, e.g. "focus on export markets".
	Prompt string `json:"prompt" example:"Supplier overview for a European buyer"`
	// Input is the supplier record as a JSON object.
	Input json.RawMessage `json:"input" binding:"required" swaggertype:"object"`
	Mode  string          `json:"mode" enums:"local,remote" example:"local"`
	Theme string          `json:"theme" example:"default"`
}

// PreviewDeckRequest is the body of POST /v1/decks/preview.
type PreviewDeckRequest struct {
	Prompt string          `json:"prompt"`
	Input  json.RawMessage `json:"input" binding:"required" swaggertype:"object"`
	Theme  string          `json:"theme"`
}
