package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"friendtalk/internal/models"
	"friendtalk/internal/repositories"
	"friendtalk/internal/ws"
)

// UploadHandler accepts multipart file messages.
type UploadHandler struct {
	messages repositories.MessageRepository
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	hub      *ws.Hub
	dir      string
}

// NewUploadHandler builds an UploadHandler storing files under dir.
func NewUploadHandler(messages repositories.MessageRepository, chats repositories.ChatRepository, users repositories.UserRepository, hub *ws.Hub, dir string) *UploadHandler {
	return &UploadHandler{messages: messages, chats: chats, users: users, hub: hub, dir: dir}
}

// Upload stores the file, appends a message referencing it, and
// broadcasts the message like any other.
func (h *UploadHandler) Upload(c *gin.Context) {
	username := c.PostForm("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if _, err := h.users.GetUser(c.Request.Context(), username); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	chatID := c.PostForm("chatId")
	if chatID != "" {
		member, err := h.chats.IsMember(c.Request.Context(), chatID, username)
		if err != nil {
			if errors.Is(err, repositories.ErrChatNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
			return
		}
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), chatID, username, c.PostForm("text"), "/uploads/"+name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	ws.BroadcastEvent(c.Request.Context(), h.hub, h.chats, chatID, models.Event{Type: models.EventMessage, Message: &msg})
	c.JSON(http.StatusCreated, gin.H{"msg": msg})
}
