// Package auth inspects the backend's bearer tokens and guards the dashboard service.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// ErrNotAuthenticated is returned when no usable token is available
var ErrNotAuthenticated = errors.New("not authenticated")

// ClaimsKey is the gin context key holding the verified claims
const ClaimsKey = "auth.claims"

// Claims are the fields the dashboards read from a backend token
type Claims struct {
	Role         string `json:"role,omitempty"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	jwt.StandardClaims
}

// Inspect decodes a JWT without verifying its signature.
// The backend remains the authority; this only reads expiry and identity.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim has passed
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.Unix() >= c.ExpiresAt
}

// Usable checks a stored token before it is sent to the backend.
// Opaque (non-JWT) tokens are passed through; expired JWTs are rejected.
func Usable(token string, now time.Time) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	claims, err := Inspect(token)
	if err != nil {
		return nil
	}
	if claims.Expired(now) {
		return fmt.Errorf("%w: token expired at %s", ErrNotAuthenticated, time.Unix(claims.ExpiresAt, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// Middleware handles JWT authentication for the dashboard service.
// An empty secret leaves the routes open.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		tokenString := BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, token.Claims)
		c.Next()
	}
}
