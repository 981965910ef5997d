package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/recovery"
	"github.com/valyala/fasthttp"
)

// EventType names the frames sent on the event streams
type EventType string

const (
	SessionEventType EventType = models.SessionEventName
	HeartbeatEvent   EventType = "heartbeat"
)

const heartbeatInterval = 30 * time.Second

type AppEvent struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type HeartbeatPayload struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    int64  `json:"uptime"`
	Watcher   string `json:"watcher"`
}

type SSEMessage struct {
	Event     AppEvent `json:"event"`
	Timestamp int64    `json:"timestamp"`
	ID        string   `json:"id"`
}

// EventsHandler streams session events over SSE and websockets
type EventsHandler struct {
	api       SessionAPI
	startTime time.Time
}

func NewEventsHandler(api SessionAPI) *EventsHandler {
	return &EventsHandler{
		api:       api,
		startTime: time.Now(),
	}
}

// HandleSSE streams session events
// @Summary Server-Sent Events stream of session changes
// @Description Each frame is an SSEMessage. `session-event` frames carry a SessionEvent payload
// @Description (`eventType` add/update/remove). A heartbeat frame is sent on connect and every 30 seconds.
// @Description With `snapshot=true` the stream starts with one `update` per current session.
// @Description Delivery is best effort: events published while a client is disconnected are lost.
// @Tags events
// @Produce text/event-stream
// @Param snapshot query bool false "Send current sessions first"
// @Success 200 {object} SSEMessage
// @Router /v1/events [get]
func (h *EventsHandler) HandleSSE(c *fiber.Ctx) error {
	if ah := c.Get("Accept"); ah != "" && !strings.Contains(ah, "text/event-stream") && !strings.Contains(ah, "*/*") {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "This endpoint only accepts Server-Sent Events (text/event-stream)",
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, cancel := h.api.Subscribe()
	snapshot := c.QueryBool("snapshot", false)
	clientIP := c.IP()
	logger.Infof("📡 SSE client connected from %s", clientIP)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			logger.Infof("📴 SSE client %s disconnected", clientIP)
		}()

		send := func(msg SSEMessage) bool {
			b, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("⚠️ Failed to encode SSE message: %v", err)
				return true
			}
			if _, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", msg.Event.Type, msg.ID, b); err != nil {
				return false
			}
			return w.Flush() == nil
		}

		if !send(h.makeHeartbeat()) {
			return
		}
		if snapshot {
			for _, msg := range h.snapshotMessages() {
				if !send(msg) {
					return
				}
			}
		}

		tick := time.NewTicker(heartbeatInterval)
		defer tick.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok || !send(makeSessionMessage(event)) {
					return
				}
			case <-tick.C:
				if !send(h.makeHeartbeat()) {
					return
				}
			}
		}
	}))

	return nil
}

// HandleWebSocket streams the same messages as HandleSSE over a websocket
// @Summary WebSocket stream of session changes
// @Tags events
// @Param snapshot query bool false "Send current sessions first"
// @Router /v1/ws [get]
func (h *EventsHandler) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	snapshot := c.QueryBool("snapshot", false)

	return websocket.New(func(conn *websocket.Conn) {
		h.streamWebSocket(conn, snapshot)
	})(c)
}

func (h *EventsHandler) streamWebSocket(conn *websocket.Conn, snapshot bool) {
	connID := fmt.Sprintf("%p", conn)
	events, cancel := h.api.Subscribe()
	defer cancel()

	log := logger.WithField("conn", connID)
	log.Info().Msg("📡 WebSocket client connected")
	defer func() { log.Info().Msg("📴 WebSocket client disconnected") }()

	// Clients only listen; reading detects when they go away.
	closed := make(chan struct{})
	recovery.SafeGoWithCleanup("ws-reader-"+connID, func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}, func() { close(closed) })
	defer func() {
		_ = conn.Close()
		<-closed
	}()

	if err := conn.WriteJSON(h.makeHeartbeat()); err != nil {
		return
	}
	if snapshot {
		for _, msg := range h.snapshotMessages() {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}

	tick := time.NewTicker(heartbeatInterval)
	defer tick.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(makeSessionMessage(event)); err != nil {
				return
			}
		case <-tick.C:
			if err := conn.WriteJSON(h.makeHeartbeat()); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *EventsHandler) snapshotMessages() []SSEMessage {
	records := h.api.GetSessions()
	msgs := make([]SSEMessage, 0, len(records))
	for _, record := range records {
		msgs = append(msgs, makeSessionMessage(models.NewUpsertEvent(models.SessionEventUpdate, record)))
	}
	return msgs
}

func makeSessionMessage(event *models.SessionEvent) SSEMessage {
	return SSEMessage{
		Event:     AppEvent{Type: SessionEventType, Payload: event},
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.New().String(),
	}
}

func (h *EventsHandler) makeHeartbeat() SSEMessage {
	return SSEMessage{
		Event: AppEvent{
			Type: HeartbeatEvent,
			Payload: HeartbeatPayload{
				Timestamp: time.Now().UnixMilli(),
				Uptime:    time.Since(h.startTime).Milliseconds(),
				Watcher:   h.api.WatcherState().String(),
			},
		},
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.New().String(),
	}
}
