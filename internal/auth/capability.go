package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context key holding the authenticated caller's role.
const roleContextKey = "caller_role"

// RoleManager is the administrative capability required by all mutating
// count endpoints.
const RoleManager = "manager"

// CapabilityService issues and validates bearer tokens carrying the caller's
// role claim.
type CapabilityService struct {
	secret []byte
	ttl    time.Duration
}

// NewCapabilityService creates a capability service
func NewCapabilityService(secret string, ttl time.Duration) *CapabilityService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CapabilityService{secret: []byte(secret), ttl: ttl}
}

// IssueToken creates a bearer token for the given role.
func (s *CapabilityService) IssueToken(role string) (string, error) {
	claims := jwt.MapClaims{
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign capability token: %w", err)
	}
	return signed, nil
}

// ExtractRole parses and verifies a bearer token and returns the role claim.
func (s *CapabilityService) ExtractRole(authHeader string) (string, error) {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("empty token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	role, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("no role claim in token")
	}
	return role, nil
}

// Middleware resolves the caller's role from the Authorization header and
// stores it in the request context. It never aborts; handlers decide how to
// surface missing capability so they can return their structured error
// bodies.
func (s *CapabilityService) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, err := s.ExtractRole(c.GetHeader("Authorization")); err == nil {
			c.Set(roleContextKey, role)
		}
		c.Next()
	}
}

// CanManage reports whether the caller holds the administrative capability.
func CanManage(c *gin.Context) bool {
	return c.GetString(roleContextKey) == RoleManager
}

// SetRole stores a caller role on the context directly. Test helper.
func SetRole(c *gin.Context, role string) {
	c.Set(roleContextKey, role)
}
