package models

import "time"

// Message is a chat message. The id is assigned by the server at
// creation and never reassigned. An empty ChatID means the message
// belongs to the global room.
type Message struct {
	ID        string              `json:"id"`
	ChatID    string              `json:"chat_id,omitempty"`
	AuthorID  string              `json:"author_id"`
	Text      string              `json:"text"`
	FileRef   string              `json:"file,omitempty"`
	Timestamp time.Time           `json:"ts"`
	Edited    bool                `json:"edited,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
}
