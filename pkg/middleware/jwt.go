package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Fosho-App/fosho-v1/pkg/response"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// Context keys for signer information
const (
	ContextKeyIdentity = "identity"
	ContextKeyCosigner = "cosigner"
)

// CosignHeader carries an optional second signed token. Operations
// that require an event-authority co-signature read the co-signer's
// identity from it.
const CosignHeader = "X-Authority-Token"

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	// Secret key for validating JWT tokens
	Secret string
	// SkipPaths is a list of paths that should skip JWT validation
	SkipPaths []string
}

// parseIdentity validates tokenString and returns the identity claim.
func parseIdentity(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	identity, ok := claims["identity"].(string)
	if !ok || identity == "" {
		// Fall back to the registered subject claim.
		identity, _ = claims["sub"].(string)
	}
	if identity == "" {
		return "", ErrInvalidToken
	}
	return identity, nil
}

// JWTMiddleware validates the requester's signed identity token and
// injects the identity into the request context. When the request also
// carries a co-signature token it is validated the same way; a present
// but invalid co-signature is rejected outright rather than silently
// dropped.
func JWTMiddleware(config *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if path should skip JWT validation
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("MISSING_TOKEN", "Authorization header is required"))
			return
		}

		// Extract token from "Bearer <token>"
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid authorization header format"))
			return
		}
		tokenString := authHeader[len(bearerPrefix):]

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Token is empty"))
			return
		}

		identity, err := parseIdentity(tokenString, config.Secret)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("TOKEN_EXPIRED", "Access token has expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_TOKEN", "Invalid access token"))
			return
		}
		c.Set(ContextKeyIdentity, identity)

		if cosignToken := c.GetHeader(CosignHeader); cosignToken != "" {
			cosigner, err := parseIdentity(cosignToken, config.Secret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("INVALID_COSIGN_TOKEN", "Invalid co-signature token"))
				return
			}
			c.Set(ContextKeyCosigner, cosigner)
		}

		c.Next()
	}
}

// GetIdentity extracts the signed requester identity from gin context
func GetIdentity(c *gin.Context) (string, bool) {
	identity, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return "", false
	}
	id, ok := identity.(string)
	return id, ok
}

// GetCosigner extracts the co-signing authority identity from gin
// context. Absent when no co-signature token was presented.
func GetCosigner(c *gin.Context) (string, bool) {
	cosigner, exists := c.Get(ContextKeyCosigner)
	if !exists {
		return "", false
	}
	id, ok := cosigner.(string)
	return id, ok
}
