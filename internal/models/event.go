package models

// Event is pushed to clients over WebSocket connections.
type Event struct {
	Type      string              `json:"type"`
	Message   *Message            `json:"message,omitempty"`
	Messages  []Message           `json:"messages,omitempty"`
	Users     []User              `json:"users,omitempty"`
	MessageID string              `json:"message_id,omitempty"`
	ChatID    string              `json:"chat_id,omitempty"`
	UserID    string              `json:"user_id,omitempty"`
	Text      string              `json:"text,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Code      string              `json:"code,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// Server push event types.
const (
	EventUsers      = "users"
	EventMessages   = "messages"
	EventMessage    = "message"
	EventEdit       = "edit"
	EventDelete     = "delete"
	EventReact      = "react"
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
	EventError      = "error"
)

// ErrorEvent builds a typed rejection pushed back to the offending
// connection instead of dropping the frame silently.
func ErrorEvent(code, reason string) Event {
	return Event{Type: EventError, Code: code, Reason: reason}
}

// PresenceEvent builds a full users-list push.
func PresenceEvent(users []User) Event {
	public := make([]User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return Event{Type: EventUsers, Users: public}
}
