package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/responses"
	"github.com/janhq/deck-server/internal/utils/platformerrors"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Watch handles GET /v1/decks/:job_id/watch
// @Summary Watch deck job progress
// @Description Upgrades to a websocket and sends a progress snapshot whenever status or progress changes. The server closes the socket once the job is done or failed.
// @Tags Decks
// @Param job_id path string true "Job ID"
// @Success 101 {object} responses.ProgressEvent
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/decks/{job_id}/watch [get]
func (h *DeckHandler) Watch(c *gin.Context) {
	id := c.Param("job_id")
	j, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	conn, err := watchUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	// Client messages are ignored; reading is needed to process control frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(fn func() error) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
			return false
		}
		return fn() == nil
	}

	last := responses.MapJobToEvent(j)
	if !write(func() error { return conn.WriteJSON(last) }) {
		return
	}

	poll := time.NewTicker(h.watchInterval)
	defer poll.Stop()
	ping := time.NewTicker(watchPingEvery)
	defer ping.Stop()

	for !job.Status(last.Status).IsTerminal() {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if !write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }) {
				return
			}
		case <-poll.C:
			j, err := h.jobs.Get(ctx, id)
			if err != nil {
				h.log.Warn().Err(err).Str("job_id", id).Msg("watch poll failed")
				return
			}
			event := responses.MapJobToEvent(j)
			if event == last {
				continue
			}
			last = event
			if !write(func() error { return conn.WriteJSON(event) }) {
				return
			}
		}
	}

	write(func() error {
		return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, last.Status))
	})
}
