package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame types accepted from clients.
const (
	FrameJoin          = "join"
	FrameChat          = "chat"
	FrameMessage       = "message"
	FrameEdit          = "edit"
	FrameDelete        = "delete"
	FrameReact         = "react"
	FrameTyping        = "typing"
	FrameStopTyping    = "stopTyping"
	FrameLeave         = "leave"
	FrameUpdateProfile = "updateProfile"
	FramePing          = "ping"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownFrame   = errors.New("unknown frame type")
)

// Frame is one inbound JSON message, a closed tagged union on Type.
type Frame struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
}

// DecodeFrame parses a raw frame once and rejects unknown variants so
// no frame is ever dropped without a diagnosable reason.
func DecodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if frame.Type == "" {
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	switch frame.Type {
	case FrameJoin, FrameChat, FrameMessage, FrameEdit, FrameDelete, FrameReact,
		FrameTyping, FrameStopTyping, FrameLeave, FrameUpdateProfile, FramePing:
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownFrame, frame.Type)
	}
}
