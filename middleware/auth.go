package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const IdentityContextKey = "identity"

// BearerToken returns the credential from the Authorization header, with or
// without the "Bearer " prefix.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) >= 6 && strings.EqualFold(header[:6], "bearer") {
		if len(header) == 6 || header[6] == ' ' {
			return strings.TrimSpace(header[6:])
		}
	}
	return header
}

// RequireAdmin authenticates the bearer credential and requires the admin role.
func RequireAdmin(auth services.Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := BearerToken(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization credential is required"})
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), credential)
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrAuthNotConfigured):
			log.Error("admin authenticator unavailable", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication is unavailable, try again later"})
			return
		default:
			log.Debug("admin authentication failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session, please sign in"})
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}

		c.Set(IdentityContextKey, identity)
		c.Next()
	}
}

// GetIdentity returns the identity set by RequireAdmin, or nil.
func GetIdentity(c *gin.Context) *models.Identity {
	if v, ok := c.Get(IdentityContextKey); ok {
		if identity, ok := v.(*models.Identity); ok {
			return identity
		}
	}
	return nil
}
