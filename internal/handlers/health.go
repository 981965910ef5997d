package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ppds/orchdash/internal/sessions"
)

// HealthResponse reports process liveness and the watcher state
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Watcher string `json:"watcher" example:"watching"`
}

// HealthHandler reports liveness. A failed watcher only degrades the
// response; queries and commands keep working without live updates.
type HealthHandler struct {
	api SessionAPI
}

func NewHealthHandler(api SessionAPI) *HealthHandler {
	return &HealthHandler{api: api}
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	state := h.api.WatcherState()
	status := "ok"
	if state != sessions.StateWatching {
		status = "degraded"
	}
	return c.JSON(HealthResponse{Status: status, Watcher: state.String()})
}
