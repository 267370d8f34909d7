package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"friendtalk/internal/models"
	"friendtalk/internal/repositories"
	"friendtalk/internal/telemetry"
	"friendtalk/internal/ws"
)

// ChatHandler manages chat and user listing endpoints.
type ChatHandler struct {
	chats repositories.ChatRepository
	users repositories.UserRepository
	hub   *ws.Hub
	audit *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats repositories.ChatRepository, users repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chats: chats, users: users, hub: hub, audit: audit}
}

// ListUsers returns all known identities with live presence flags.
func (h *ChatHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	online := h.hub.OnlineUserIDs()
	public := make([]models.User, 0, len(users))
	for _, u := range users {
		u.Online = online[u.ID]
		public = append(public, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": public})
}

// ListChatsForUser returns the chats the user is a member of.
func (h *ChatHandler) ListChatsForUser(c *gin.Context) {
	username := c.Param("username")

	chats, err := h.chats.ListChatsForUser(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// CreateChat creates a private or group chat.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Type    string   `json:"type" binding:"required"`
		Name    string   `json:"name"`
		Members []string `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.chats.CreateChat(c.Request.Context(), models.ChatType(req.Type), req.Name, req.Members)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidMembership) || errors.Is(err, repositories.ErrInvalidChatType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		emitAudit(c, h.audit, "ERROR", "chat creation failed", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	emitAudit(c, h.audit, "INFO", "chat created", nil)
	c.JSON(http.StatusCreated, chat)
}
