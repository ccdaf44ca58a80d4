package http

import (
	"net/http"

	"camwatch/internal/core/ports"
	"camwatch/internal/core/services"
	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService       services.AuthService
	credentialService ports.CredentialService
}

func NewAuthHandler(authService services.AuthService, credentialService ports.CredentialService) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		credentialService: credentialService,
	}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}

	user, err := h.credentialService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("invalid request body"))
		return
	}

	user, err := h.credentialService.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Username)
	if err != nil {
		_ = c.Error(errors.NewInternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me echoes the verified session claim.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, err := services.ClaimsFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	resp := gin.H{
		"id":       claims.UserID,
		"username": claims.Username,
	}
	if claims.ExpiresAt != nil {
		resp["exp"] = claims.ExpiresAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}
