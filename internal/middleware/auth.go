package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKeyClient is the key for the authenticated client ID in gin context.
const ContextKeyClient = "client_id"

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig holds configuration for JWT authentication.
type AuthConfig struct {
	Enabled        bool
	SecretKey      string
	ExpiryDuration time.Duration
	Issuer         string
	TokenHeader    string
	TokenPrefix    string
}

// DefaultAuthConfig returns default authentication configuration.
func DefaultAuthConfig(secret string, enabled bool) *AuthConfig {
	return &AuthConfig{
		Enabled:        enabled,
		SecretKey:      secret,
		ExpiryDuration: 24 * time.Hour,
		Issuer:         "limitbook",
		TokenHeader:    "Authorization",
		TokenPrefix:    "Bearer ",
	}
}

// AuthMiddleware provides JWT authentication for Gin. It guards the
// mutating order endpoints; read-only book queries stay open.
type AuthMiddleware struct {
	config *AuthConfig
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(config *AuthConfig) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthConfig("", false)
	}
	return &AuthMiddleware{config: config}
}

// GinMiddleware returns the Gin middleware handler function.
func (a *AuthMiddleware) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.config.Enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader(a.config.TokenHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing authorization header",
				"code":    "AUTH_MISSING_HEADER",
			})
			return
		}

		if !strings.HasPrefix(authHeader, a.config.TokenPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid authorization header format",
				"code":    "AUTH_INVALID_FORMAT",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, a.config.TokenPrefix)
		claims, err := a.validateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
				"code":    "AUTH_INVALID_TOKEN",
			})
			return
		}

		c.Set(ContextKeyClient, claims.ClientID)
		c.Next()
	}
}

// validateToken parses and validates a JWT token.
func (a *AuthMiddleware) validateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(a.config.SecretKey), nil
	})
	if err != nil {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if a.config.Issuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != a.config.Issuer {
			return nil, errors.New("invalid token issuer")
		}
	}

	return claims, nil
}

// GenerateToken generates a new JWT token for a client.
func (a *AuthMiddleware) GenerateToken(clientID, role string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		ClientID: clientID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.ExpiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.SecretKey))
}
