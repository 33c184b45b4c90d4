package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realty-marketplace/internal/auth"
	"realty-marketplace/internal/repository"
)

// AuthHandler issues tokens for local development. Account management and
// credential checks live in the separate identity service; this handler
// exists so the dashboards can talk to the API without it.
type AuthHandler struct {
	users  repository.UserRepository
	tokens *auth.TokenService
}

func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// RegisterAuthRoutes registers the development token endpoint. It mints a
// signed token for any known email without a credential check, so it is
// only registered when explicitly enabled in the configuration.
func RegisterAuthRoutes(r gin.IRouter, h *AuthHandler, devTokenEnabled bool) {
	if !devTokenEnabled {
		return
	}
	r.POST("/api/auth/token", h.IssueToken)
}

// IssueToken exchanges a known email for a signed token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
