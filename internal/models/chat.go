package models

import "time"

// ChatType distinguishes two-party chats from named groups.
type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

// Chat is a room with a fixed member set. Private chats have exactly
// two members; membership is immutable after creation.
type Chat struct {
	ID        string    `json:"id"`
	Type      ChatType  `json:"type"`
	Name      string    `json:"name,omitempty"`
	Members   []string  `json:"members"`
	AvatarRef string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether the user belongs to the chat.
func (c Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
