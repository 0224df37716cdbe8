package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/domain/theme"
)

// Config tunes the handlers.
type Config struct {
	// ArtifactContentType is sent with downloads.
	ArtifactContentType string
	WatchInterval       time.Duration
}

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Deck  *DeckHandler
	Theme *ThemeHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(jobs JobService, previewer Previewer, store ArtifactOpener, themes *theme.Registry, cfg Config, log zerolog.Logger) *Provider {
	return &Provider{
		Deck:  NewDeckHandler(jobs, previewer, store, cfg, log),
		Theme: NewThemeHandler(themes),
	}
}
