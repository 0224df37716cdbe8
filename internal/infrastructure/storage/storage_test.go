package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/config"
)

func TestLocalStorage_PutOpen(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "decks/deck_1.pdf", strings.NewReader("first"), 5, "application/pdf"))
	require.NoError(t, s.Put(ctx, "decks/deck_1.pdf", strings.NewReader("second"), 6, "application/pdf"))

	rc, err := s.Open(ctx, "decks/deck_1.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.NoError(t, s.Health(ctx))
}

func TestLocalStorage_Errors(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	_, err = s.Open(ctx, "decks/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, key := range []string{"../escape.pdf", "/etc/passwd", ""} {
		assert.Error(t, s.Put(ctx, key, strings.NewReader("x"), 1, "text/plain"), key)
	}

	_, err = NewLocalStorage("  ", zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	st, err := New(context.Background(), &config.Config{StorageBackend: config.StorageLocal, LocalStorage: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)
}
