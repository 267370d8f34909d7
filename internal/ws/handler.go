package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"friendtalk/internal/observability"
	"friendtalk/internal/repositories"
)

// Handler upgrades HTTP requests into chat websocket connections.
type Handler struct {
	hub      *Hub
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, users repositories.UserRepository, chats repositories.ChatRepository, messages repositories.MessageRepository) *Handler {
	return &Handler{hub: hub, users: users, chats: chats, messages: messages}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and runs the session until the
// transport closes.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("friendtalk/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newClient(conn, info)
	h.hub.Register(client)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: observability.WSEventPayload("ws_connect", info.ConnID, "", info.ConnectedAt, "",
			observability.ConnIdentity{DeviceID: info.DeviceID, IP: info.IP}),
	}, headers)

	go client.writePump()
	go h.readLoop(ctx, client)
}

// readLoop decodes inbound frames to completion, one at a time, and
// cleans the connection up on transport close.
func (h *Handler) readLoop(ctx context.Context, client *Client) {
	session := NewSession(h.hub, client, h.users, h.chats, h.messages)
	info := client.Info()
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)

	var closeReason string
	defer func() {
		identity := observability.ConnIdentity{UserID: session.UserID(), DeviceID: info.DeviceID, IP: info.IP}
		// Unregister before the closing session broadcasts presence, so
		// the departing identity is no longer bound and reads as offline.
		h.hub.Unregister(client)
		session.Close(ctx)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   observability.WSEventPayload("ws_disconnect", info.ConnID, "", info.ConnectedAt, closeReason, identity),
		}, headers)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxFrameSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
					EventType: "ws_events",
					EventName: "ws_error",
					Payload: observability.WSEventPayload("ws_error", info.ConnID, "", info.ConnectedAt, closeReason,
						observability.ConnIdentity{UserID: session.UserID(), DeviceID: info.DeviceID, IP: info.IP}),
				}, headers)
			}
			return
		}
		session.HandleFrame(ctx, raw)
	}
}
