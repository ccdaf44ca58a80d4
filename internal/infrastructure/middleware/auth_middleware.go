package middleware

import (
	"strings"

	"camwatch/internal/core/services"
	"camwatch/pkg/errors"
	"camwatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by AuthMiddleware.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyClaims   = "claims"
)

// AuthMiddleware rejects requests without a valid bearer token before any
// handler runs. Verified claims are stored on the gin context and on the
// request context.
func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, errors.NewUnauthorizedError("authorization header required"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortWithError(c, errors.NewUnauthorizedError("invalid authorization header format"))
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			abortWithError(c, errors.NewUnauthorizedError(err.Error()))
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyClaims, claims)

		ctx := services.ContextWithClaims(c.Request.Context(), claims)
		ctx = logger.WithUserID(ctx, string(claims.UserID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// abortWithError writes the standard error body and stops the chain.
func abortWithError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"error": appErr.PublicMessage(),
		"code":  string(appErr.Code),
	})
}
