package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/models"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrInvalidToken is wrapped by every authentication failure.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrAuthNotConfigured is returned when no signing secret is available.
	ErrAuthNotConfigured = errors.New("JWT secret not configured")
)

// Authenticator exchanges a bearer credential for a user identity.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*models.Identity, error)
}

// JWTAuthenticator validates HMAC-signed access tokens issued by the
// identity provider.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &JWTAuthenticator{}
	}
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, credential string) (*models.Identity, error) {
	if a.secret == nil {
		return nil, ErrAuthNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	// Parse only checks exp when present; tokens must carry one.
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return nil, fmt.Errorf("%w: missing or past expiry", ErrInvalidToken)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	identity := &models.Identity{UserID: userID}
	identity.Email, _ = claims["email"].(string)
	identity.Role, _ = claims["role"].(string)
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta["role"].(string); ok && role != "" {
			identity.Role = role
		}
	}
	return identity, nil
}
