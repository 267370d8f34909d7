package ws

import "time"

// ConnInfo captures per-connection metadata collected at handshake
// time, attached to lifecycle events.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
