// Package auth provides the anti-forgery nonce service and the capability
// check used by mutating endpoints.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Generic nonce action used by the content-save path. Refresh nonces are
// scoped per content id via RefreshAction.
const SaveAction = "save-counts"

// RefreshAction returns the nonce action scoped to one content id.
func RefreshAction(contentID string) string {
	return "refresh-" + contentID
}

// NonceService issues and verifies anti-forgery tokens. A nonce is an HS256
// JWT carrying the action it was created for and a short expiry.
type NonceService struct {
	secret []byte
	ttl    time.Duration
}

// NewNonceService creates a nonce service
func NewNonceService(secret string, ttl time.Duration) *NonceService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &NonceService{secret: []byte(secret), ttl: ttl}
}

// Create issues a nonce for the given action.
func (n *NonceService) Create(action string) (string, error) {
	claims := jwt.MapClaims{
		"action": action,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(n.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(n.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}
	return signed, nil
}

// Verify checks that the token is valid, unexpired, and was issued for the
// given action.
func (n *NonceService) Verify(tokenString, action string) bool {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return n.secret, nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	got, ok := claims["action"].(string)
	return ok && got == action
}
