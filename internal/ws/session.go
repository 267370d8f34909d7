package ws

import (
	"context"
	"errors"
	"log"

	"friendtalk/internal/models"
	"friendtalk/internal/observability"
	"friendtalk/internal/repositories"
)

// Rejection codes sent in error frames.
const (
	CodeBadFrame  = "bad_frame"
	CodeNotJoined = "not_joined"
	CodeNotInRoom = "not_in_room"
	CodeForbidden = "forbidden"
	CodeNotFound  = "not_found"
	CodeInternal  = "internal"
)

// Session drives the per-connection protocol state machine:
// connected -> joined (identity bound) -> in-room (chat bound).
// Frames arriving before their precondition holds get a typed error
// frame back instead of a silent drop.
type Session struct {
	hub      *Hub
	client   *Client
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository

	userID string
	room   string
}

// NewSession binds a session to a registered client.
func NewSession(hub *Hub, client *Client, users repositories.UserRepository, chats repositories.ChatRepository, messages repositories.MessageRepository) *Session {
	return &Session{hub: hub, client: client, users: users, chats: chats, messages: messages}
}

// UserID returns the bound identity, empty before join.
func (s *Session) UserID() string {
	return s.userID
}

// HandleFrame decodes one inbound frame and dispatches it.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		observability.IncWSEvent("ws_reject")
		s.reject(CodeBadFrame, err.Error())
		return
	}
	observability.IncWSFrame(frame.Type)

	switch frame.Type {
	case FrameJoin:
		s.handleJoin(ctx, frame)
	case FrameChat, FrameMessage:
		s.handleMessage(ctx, frame)
	case FrameEdit:
		s.handleEdit(ctx, frame)
	case FrameDelete:
		s.handleDelete(ctx, frame)
	case FrameReact:
		s.handleReact(ctx, frame)
	case FrameTyping, FrameStopTyping:
		s.handleTyping(ctx, frame)
	case FrameLeave:
		s.handleLeave(ctx, frame)
	case FrameUpdateProfile:
		s.handleUpdateProfile(ctx, frame)
	case FramePing:
		// client keepalive, nothing to do
	}
}

// Close releases the session's identity binding on transport close.
// The user record stays; it is only marked offline.
func (s *Session) Close(ctx context.Context) {
	if s.userID == "" {
		return
	}
	if err := s.users.SetOnline(ctx, s.userID, false); err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		s.logErr("mark offline", err)
	}
	s.userID = ""
	s.room = ""
	s.broadcastPresence(ctx)
}

func (s *Session) handleJoin(ctx context.Context, frame Frame) {
	id := frame.ID
	if id == "" {
		id = frame.Name
	}
	if id == "" {
		s.reject(CodeBadFrame, "join requires an id")
		return
	}

	user, err := s.users.UpsertProfile(ctx, id, frame.Name, frame.Avatar)
	if err != nil {
		s.reject(CodeInternal, "failed to bind identity")
		return
	}
	s.userID = user.ID
	s.hub.Bind(s.client, user.ID)

	if frame.ChatID != "" {
		// presence still goes out below even if the room bind is
		// rejected; the identity is already bound and online
		s.bindRoom(ctx, frame.ChatID)
	} else {
		// global room: push the stored backlog to this connection only
		if history, err := s.messages.ListGlobal(ctx); err != nil {
			s.reject(CodeInternal, "failed to load history")
		} else {
			s.hub.SendTo(s.client, models.Event{Type: models.EventMessages, Messages: history})
		}
	}

	s.broadcastPresence(ctx)
}

func (s *Session) handleMessage(ctx context.Context, frame Frame) {
	if !s.requireJoined() {
		return
	}
	chatID := frame.ChatID
	if chatID == "" {
		chatID = s.room
	}
	if chatID != "" {
		member, err := s.chats.IsMember(ctx, chatID, s.userID)
		if err != nil {
			s.rejectRepoError(err)
			return
		}
		if !member {
			s.reject(CodeForbidden, "not a chat member")
			return
		}
	}

	msg, err := s.messages.Append(ctx, chatID, s.userID, frame.Text, "")
	if err != nil {
		s.reject(CodeInternal, "failed to store message")
		return
	}
	s.broadcast(ctx, chatID, models.Event{Type: models.EventMessage, Message: &msg})
}

func (s *Session) handleEdit(ctx context.Context, frame Frame) {
	if !s.requireJoined() {
		return
	}
	msg, err := s.messages.Edit(ctx, frame.MessageID, s.userID, frame.Text)
	if err != nil {
		s.rejectRepoError(err)
		return
	}
	s.broadcast(ctx, msg.ChatID, models.Event{
		Type:      models.EventEdit,
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
		Text:      msg.Text,
		Message:   &msg,
	})
}

func (s *Session) handleDelete(ctx context.Context, frame Frame) {
	if !s.requireJoined() {
		return
	}
	msg, err := s.messages.Get(ctx, frame.MessageID)
	if err != nil {
		s.rejectRepoError(err)
		return
	}
	if err := s.messages.Delete(ctx, frame.MessageID, s.userID); err != nil {
		s.rejectRepoError(err)
		return
	}
	s.broadcast(ctx, msg.ChatID, models.Event{
		Type:      models.EventDelete,
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
	})
}

func (s *Session) handleReact(ctx context.Context, frame Frame) {
	if !s.requireJoined() {
		return
	}
	if frame.Emoji == "" {
		s.reject(CodeBadFrame, "react requires an emoji")
		return
	}
	msg, err := s.messages.ToggleReaction(ctx, frame.MessageID, s.userID, frame.Emoji)
	if err != nil {
		s.rejectRepoError(err)
		return
	}
	s.broadcast(ctx, msg.ChatID, models.Event{
		Type:      models.EventReact,
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
		Reactions: msg.Reactions,
	})
}

func (s *Session) handleTyping(ctx context.Context, frame Frame) {
	if s.room == "" {
		s.reject(CodeNotInRoom, "no room bound")
		return
	}
	eventType := models.EventTyping
	if frame.Type == FrameStopTyping {
		eventType = models.EventStopTyping
	}
	// transient, never persisted
	s.broadcast(ctx, s.room, models.Event{Type: eventType, UserID: s.userID, ChatID: s.room})
}

func (s *Session) handleLeave(ctx context.Context, frame Frame) {
	if s.room == "" {
		s.reject(CodeNotInRoom, "no room bound")
		return
	}
	s.hub.LeaveRoom(s.client)
	s.room = ""
}

func (s *Session) handleUpdateProfile(ctx context.Context, frame Frame) {
	if !s.requireJoined() {
		return
	}
	if _, err := s.users.UpdateProfile(ctx, s.userID, frame.Name, frame.Avatar); err != nil {
		s.rejectRepoError(err)
		return
	}
	s.broadcastPresence(ctx)
}

// bindRoom verifies membership, binds the room pointer, and pushes the
// chat's history to this connection only. Failure rejects the frame but
// leaves the identity joined.
func (s *Session) bindRoom(ctx context.Context, chatID string) {
	member, err := s.chats.IsMember(ctx, chatID, s.userID)
	if err != nil {
		s.rejectRepoError(err)
		return
	}
	if !member {
		s.reject(CodeForbidden, "not a chat member")
		return
	}

	s.hub.JoinRoom(s.client, chatID)
	s.room = chatID

	history, err := s.messages.ListForChat(ctx, chatID)
	if err != nil {
		s.reject(CodeInternal, "failed to load history")
		return
	}
	s.hub.SendTo(s.client, models.Event{Type: models.EventMessages, ChatID: chatID, Messages: history})
}

// broadcast routes an event to the chat's room or, for the global
// room, to every connection.
func (s *Session) broadcast(ctx context.Context, chatID string, event models.Event) {
	BroadcastEvent(ctx, s.hub, s.chats, chatID, event)
}

func (s *Session) broadcastPresence(ctx context.Context) {
	BroadcastPresence(ctx, s.hub, s.users)
}

func (s *Session) requireJoined() bool {
	if s.userID == "" {
		s.reject(CodeNotJoined, "no identity bound")
		return false
	}
	return true
}

func (s *Session) reject(code, reason string) {
	s.hub.SendTo(s.client, models.ErrorEvent(code, reason))
}

func (s *Session) rejectRepoError(err error) {
	switch {
	case errors.Is(err, repositories.ErrNotAuthor):
		s.reject(CodeForbidden, "not the author")
	case errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrChatNotFound):
		s.reject(CodeNotFound, err.Error())
	default:
		s.reject(CodeInternal, "operation failed")
	}
}

func (s *Session) logErr(op string, err error) {
	log.Printf("session %s: %s: %v", s.client.info.ConnID, op, err)
}
