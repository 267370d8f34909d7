package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"friendtalk/internal/repositories"
	"friendtalk/internal/telemetry"
	"friendtalk/internal/ws"
)

// AuthHandler manages account endpoints.
type AuthHandler struct {
	users repositories.UserRepository
	hub   *ws.Hub
	audit *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, hub: hub, audit: audit}
}

// Register creates a persistent account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "register failed", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
		return
	}

	emitAudit(c, h.audit, "INFO", "user registered", &user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// Login validates credentials and marks the user online.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			emitAudit(c, h.audit, "WARN", "login rejected", nil)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}

	if err := h.users.SetOnline(c.Request.Context(), user.ID, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}
	ws.BroadcastPresence(c.Request.Context(), h.hub, h.users)

	emitAudit(c, h.audit, "INFO", "user logged in", &user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// Logout marks the user offline.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.SetOnline(c.Request.Context(), req.Username, false); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
		return
	}
	ws.BroadcastPresence(c.Request.Context(), h.hub, h.users)

	emitAudit(c, h.audit, "INFO", "user logged out", &req.Username)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
