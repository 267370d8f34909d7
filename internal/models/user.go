package models

import "time"

// User is a chat participant. Identity is either a registered account
// (username + password hash) or an ephemeral anonymous profile id
// generated client-side.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	DisplayName  string    `json:"display_name"`
	AvatarRef    string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Anonymous    bool      `json:"anonymous,omitempty"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"last_seen"`
}

// Public returns a copy safe to send to clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
