package observability

import (
	"context"
	"time"
)

// EventEnvelope wraps service events published to the message broker.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// Publisher is satisfied by the rabbitmq publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

var defaultPublisher Publisher

// SetPublisher installs the broker publisher used by PublishEvent.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// PublishEvent ships an event envelope through the installed publisher.
// Publish failures are counted; callers are not expected to retry.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.Publish(ctx, routingKey, envelope, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

// BuildHeaders assembles correlation headers for published events.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// ConnIdentity carries the identity fields attached to ws lifecycle
// events.
type ConnIdentity struct {
	UserID   string
	DeviceID string
	IP       string
}

// WSEventPayload builds a ws lifecycle event payload.
func WSEventPayload(event, connID, chatID string, connectedAt time.Time, reason string, identity ConnIdentity) map[string]interface{} {
	durationMS := int64(0)
	if !connectedAt.IsZero() {
		durationMS = time.Since(connectedAt).Milliseconds()
	}
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     connID,
			"chat_id":     chatID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   identity.UserID,
			"device_id": identity.DeviceID,
			"ip":        identity.IP,
		},
	}
}
