package genservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/domain/remote"
)

func TestClient_CreateAndPoll(t *testing.T) {
	var created remote.Request
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/generations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"generationId":"gen-1"}`))
	})
	mux.HandleFunc("/v1/generations/gen-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"COMPLETED","gammaUrl":"https://gen/1","exportUrl":"https://gen/1.pdf"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", 0)
	id, err := c.Create(context.Background(), remote.Request{Title: "Acme", NumCards: 3})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", id)
	assert.Equal(t, "Acme", created.Title)

	gen, err := c.Poll(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, remote.StatusCompleted, gen.Status)
	assert.Equal(t, "https://gen/1", gen.URL)
	assert.Equal(t, "https://gen/1.pdf", gen.ExportURL)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"failed","error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	_, err := c.Create(context.Background(), remote.Request{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	gen, err := c.Poll(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, remote.StatusFailed, gen.Status)
	assert.Equal(t, "quota exceeded", gen.Error)
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{``, ""},
		{`null`, ""},
		{`"boom"`, "boom"},
		{`{"message":"bad theme"}`, "bad theme"},
		{`42`, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorText(json.RawMessage(tt.raw)), tt.raw)
	}
}
