package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/theme"
	"github.com/janhq/deck-server/internal/infrastructure/repository/jobrepo"
	"github.com/janhq/deck-server/internal/infrastructure/storage"
	"github.com/janhq/deck-server/internal/interfaces/httpserver"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/handlers"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/responses"
)

const supplier = `{
  "Company Name": "Acme Studio",
  "company_profile": {"founded": 2010, "headquarters": "Shenzhen, China",
    "description": "Acme Studio designs industrial robot arms for electronics assembly lines."},
  "products": [{"name": "Arm X1"}, {"name": "Arm X2"}],
  "certifications": ["ISO 9001", "CE"],
  "team_size": 85
}`

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	handler http.Handler
	jobs    *job.Service
	store   *storage.LocalStorage
}

func newTestServer(t *testing.T, ready httpserver.ReadinessCheck) *testServer {
	t.Helper()
	log := zerolog.Nop()

	themes, err := theme.NewRegistry("", "")
	require.NoError(t, err)
	jobs := job.NewService(jobrepo.NewMemoryRepository(), func(name string) bool {
		_, ok := themes.Get(name)
		return ok
	})
	store, err := storage.NewLocalStorage(t.TempDir(), log)
	require.NoError(t, err)

	p, err := pipeline.New(nil, pipeline.DefaultConfig(), log)
	require.NoError(t, err)
	gen, err := deck.NewGenerator(deck.Dependencies{Pipeline: p, Themes: themes}, deck.Config{}, log)
	require.NoError(t, err)

	provider := handlers.NewProvider(jobs, gen, store, themes, handlers.Config{
		ArtifactContentType: "application/pdf",
		WatchInterval:       10 * time.Millisecond,
	}, log)
	cfg := &config.Config{ServiceName: "deck-api", Environment: "test", ShutdownTimeout: time.Second}
	srv := httpserver.New(cfg, log, provider, nil, ready)
	return &testServer{handler: srv.Handler(), jobs: jobs, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// finish moves a fresh job straight to done with the given artifact path.
func (s *testServer) finish(t *testing.T, filePath string) *job.Job {
	t.Helper()
	ctx := context.Background()
	created, err := s.jobs.Create(ctx, job.CreateParams{Input: json.RawMessage(supplier)})
	require.NoError(t, err)
	claimed, err := s.jobs.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, created.ID, claimed.ID)

	done := job.StatusDone
	j, err := s.jobs.Update(ctx, created.ID, job.Patch{Status: &done, FilePath: &filePath})
	require.NoError(t, err)
	return j
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/", "/healthz", "/readyz", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	s := newTestServer(t, func(context.Context) error { return errors.New("database unreachable") })
	rec := s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unreachable")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/v1/decks/deck_missing", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-123"`)
}

func TestCreateDeck(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "local job", body: `{"prompt":"overview","input":` + supplier + `}`, wantStatus: http.StatusAccepted},
		{name: "remote job with theme", body: `{"input":` + supplier + `,"mode":"remote","theme":"midnight"}`, wantStatus: http.StatusAccepted},
		{name: "malformed body", body: `{"input":`, wantStatus: http.StatusBadRequest},
		{name: "missing input", body: `{"prompt":"overview"}`, wantStatus: http.StatusBadRequest},
		{name: "input is not an object", body: `{"input":[1,2]}`, wantStatus: http.StatusBadRequest},
		{name: "unknown mode", body: `{"input":{"a":1},"mode":"cloud"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown theme", body: `{"input":{"a":1},"theme":"neon"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := s.do(t, http.MethodPost, "/v1/decks", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusAccepted {
				return
			}
			var resp responses.DeckJobResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "deck.job", resp.Object)
			assert.Equal(t, "pending", resp.Status)
			assert.Zero(t, resp.Progress)
			assert.NotEmpty(t, resp.ID)
			assert.Empty(t, resp.DownloadURL)
		})
	}
}

func TestGetDeck(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/v1/decks", `{"input":`+supplier+`,"mode":"remote"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created responses.DeckJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(t, http.MethodGet, "/v1/decks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got responses.DeckJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "remote", got.Mode)

	rec = s.do(t, http.MethodGet, "/v1/decks/deck_missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	t.Run("pending job", func(t *testing.T) {
		j, err := s.jobs.Create(ctx, job.CreateParams{Input: json.RawMessage(supplier)})
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/v1/decks/"+j.ID+"/download", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		_, err = s.jobs.Fail(ctx, j.ID, "cleanup")
		require.NoError(t, err)
	})

	t.Run("stored deck", func(t *testing.T) {
		key := deck.ArtifactKey("stored", ".pdf")
		require.NoError(t, s.store.Put(ctx, key, bytes.NewReader([]byte("%PDF-1.4 test")), 13, "application/pdf"))
		j := s.finish(t, key)

		rec := s.do(t, http.MethodGet, "/v1/decks/"+j.ID, "")
		assert.Contains(t, rec.Body.String(), `"download_url":"/v1/decks/`+j.ID+`/download"`)

		rec = s.do(t, http.MethodGet, "/v1/decks/"+j.ID+"/download", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), j.ID+".pdf")
		assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
	})

	t.Run("missing file", func(t *testing.T) {
		j := s.finish(t, "decks/gone.pdf")
		rec := s.do(t, http.MethodGet, "/v1/decks/"+j.ID+"/download", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/v1/decks/preview", `{"prompt":"overview","input":`+supplier+`,"theme":"paper"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp responses.PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deck.preview", resp.Object)
	assert.Equal(t, "paper", resp.Theme)
	assert.Equal(t, "Acme Studio", resp.Spec.PresentationTitle)
	assert.GreaterOrEqual(t, len(resp.Planned), len(resp.Spec.Slides))
	assert.Len(t, resp.Trace, len(pipeline.Stages))

	rec = s.do(t, http.MethodPost, "/v1/decks/preview", `{"input":"not an object"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThemes(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/v1/themes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.ThemeListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, theme.DefaultName, resp.Default)
	assert.Contains(t, resp.Data, "default")
	assert.Contains(t, resp.Data, "midnight")
	assert.Contains(t, resp.Data, "paper")
}

func TestWatch(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("finished job", func(t *testing.T) {
		j := s.finish(t, "decks/x.pdf")
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/v1/decks/"+j.ID+"/watch", nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var event responses.ProgressEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "progress", event.Type)
		assert.Equal(t, "done", event.Status)
		assert.Equal(t, 100, event.Progress)

		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	})

	t.Run("streams until failure", func(t *testing.T) {
		ctx := context.Background()
		j, err := s.jobs.Create(ctx, job.CreateParams{Input: json.RawMessage(supplier)})
		require.NoError(t, err)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/v1/decks/"+j.ID+"/watch", nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var first responses.ProgressEvent
		require.NoError(t, conn.ReadJSON(&first))
		assert.Equal(t, "pending", first.Status)

		_, err = s.jobs.Fail(ctx, j.ID, "remote generation failed")
		require.NoError(t, err)

		var last responses.ProgressEvent
		require.NoError(t, conn.ReadJSON(&last))
		assert.Equal(t, "failed", last.Status)
		assert.Equal(t, "remote generation failed", last.Error)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/v1/decks/deck_missing/watch", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
