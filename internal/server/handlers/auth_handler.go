package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
	"github.com/mamadbah2/amuvet/internal/session"
	"github.com/mamadbah2/amuvet/pkg/clients/amu"
)

// AuthHandler bridges the remote identity endpoints and the local session.
type AuthHandler struct {
	client   amu.Client
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler constructs the identity HTTP adapter.
func NewAuthHandler(client amu.Client, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{client: client, sessions: sessions, logger: logger}
}

// Login authenticates against the remote API and starts the local session.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.client.Login(c.Request.Context(), creds)
	if err != nil {
		h.logger.Warn("login failed", zap.String("email", creds.Email), zap.Error(err))
		respondError(c, err)
		return
	}

	h.sessions.Start(*user)
	c.JSON(http.StatusOK, user)
}

// Register creates a new account on the remote API.
func (h *AuthHandler) Register(c *gin.Context) {
	var reg models.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		h.logger.Warn("invalid registration payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "all registration fields are required"})
		return
	}
	if !reg.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role selected"})
		return
	}

	if err := h.client.Register(c.Request.Context(), reg); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully"})
}

// UpdateProfile completes the profile of the logged-in account.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, err := h.sessions.Current()
	if err != nil {
		respondError(c, err)
		return
	}

	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.logger.Warn("invalid profile payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile body"})
		return
	}

	if err := h.client.UpdateProfile(c.Request.Context(), user.Email, profile); err != nil {
		respondError(c, err)
		return
	}

	h.sessions.MarkProfileCompleted()
	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}

// Logout tears the local session down. The remote API keeps no server-side
// session to invalidate.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Clear()
	c.Status(http.StatusNoContent)
}
