package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber app exposing the session API.
func NewApp(api SessionAPI) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "orchdash",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestLogger())
	RegisterRoutes(app, api)
	return app
}

// RegisterRoutes mounts every session endpoint on router.
func RegisterRoutes(router fiber.Router, api SessionAPI) {
	sessionsHandler := NewSessionsHandler(api)
	eventsHandler := NewEventsHandler(api)
	healthHandler := NewHealthHandler(api)

	router.Get("/health", healthHandler.Health)

	v1 := router.Group("/v1")
	v1.Get("/sessions", sessionsHandler.GetSessions)
	v1.Post("/sessions/:id/forward", sessionsHandler.ForwardMessage)
	v1.Post("/sessions/:id/cancel", sessionsHandler.CancelSession)
	v1.Get("/events", eventsHandler.HandleSSE)
	v1.Get("/ws", eventsHandler.HandleWebSocket)
}
