package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/deck-server/internal/domain/theme"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/responses"
)

// ThemeHandler lists the available themes.
type ThemeHandler struct {
	themes *theme.Registry
}

// NewThemeHandler constructs the handler.
func NewThemeHandler(themes *theme.Registry) *ThemeHandler {
	return &ThemeHandler{themes: themes}
}

// List handles GET /v1/themes
// @Summary List themes
// @Tags Themes
// @Produce json
// @Success 200 {object} responses.ThemeListResponse
// @Router /v1/themes [get]
func (h *ThemeHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, responses.ThemeListResponse{
		Object:  "list",
		Default: h.themes.Resolve("").Name,
		Data:    h.themes.Names(),
	})
}
