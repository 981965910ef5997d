package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ppds/orchdash/internal/orch"
	"github.com/ppds/orchdash/internal/sessions"
)

// SessionsHandler serves the snapshot query and the session commands
type SessionsHandler struct {
	api SessionAPI
}

// ForwardMessageRequest is the body of POST /v1/sessions/{id}/forward
// @Description Message to relay to the session's worker
type ForwardMessageRequest struct {
	Message string `json:"message" example:"Please rebase on main before continuing"`
}

// ErrorResponse carries a command failure back to the UI
type ErrorResponse struct {
	Error string `json:"error" example:"session abc123 not found"`
}

func NewSessionsHandler(api SessionAPI) *SessionsHandler {
	return &SessionsHandler{api: api}
}

// GetSessions returns every valid session record
// @Summary List sessions
// @Description Re-reads the sessions directory and returns one record per valid file
// @Tags sessions
// @Produce json
// @Success 200 {array} models.SessionRecord
// @Router /v1/sessions [get]
func (h *SessionsHandler) GetSessions(c *fiber.Ctx) error {
	return c.JSON(h.api.GetSessions())
}

// ForwardMessage relays a message to a running session through orch
// @Summary Forward a message
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ForwardMessageRequest true "Message"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/sessions/{id}/forward [post]
func (h *SessionsHandler) ForwardMessage(c *fiber.Ctx) error {
	var req ForwardMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	err := h.api.ForwardMessage(c.UserContext(), c.Params("id"), req.Message)
	return commandResult(c, err)
}

// CancelSession asks orch to cancel a session
// @Summary Cancel a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v1/sessions/{id}/cancel [post]
func (h *SessionsHandler) CancelSession(c *fiber.Ctx) error {
	err := h.api.CancelSession(c.UserContext(), c.Params("id"))
	return commandResult(c, err)
}

// commandResult maps a command outcome onto the response. orch failures
// are passed through verbatim.
func commandResult(c *fiber.Ctx, err error) error {
	if err == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if errors.Is(err, sessions.ErrInvalidSessionID) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var cmdErr *orch.CommandError
	if errors.As(err, &cmdErr) {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: cmdErr.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}
