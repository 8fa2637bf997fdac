package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamehub/backend/internal/response"
)

// Welcome godoc
// @Summary      API root
// @Tags         system
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       / [get]
func (h *Handler) Welcome(c *gin.Context) {
	response.OK(c, "Welcome to the Game Hub API!", nil)
}

// Ping godoc
// @Summary      Health check
// @Description  Reports whether the database is reachable.
// @Tags         system
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ping [get]
func (h *Handler) Ping(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Error("database ping failed", "error", err)
		response.Fail(c, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	response.OK(c, "pong", nil)
}
