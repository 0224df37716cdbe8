package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/deck-server/internal/interfaces/httpserver/handlers"
)

func registerDeckRoutes(group *gin.RouterGroup, h *handlers.DeckHandler) {
	decks := group.Group("/decks")
	decks.POST("", h.Create)
	decks.POST("/preview", h.Preview)
	decks.GET("/:job_id", h.Get)
	decks.GET("/:job_id/download", h.Download)
	decks.GET("/:job_id/watch", h.Watch)
}

func registerThemeRoutes(group *gin.RouterGroup, h *handlers.ThemeHandler) {
	group.GET("/themes", h.List)
}
