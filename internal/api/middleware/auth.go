package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// TokenParser is the part of the auth service the middleware needs.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// AuthMiddleware validates the bearer token and sets the user context.
func AuthMiddleware(auth TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.Debug().Str("component", "auth").Str("path", c.Request.URL.Path).Msg("Missing or malformed Authorization header")
			abortUnauthorized(c, "no token provided")
			return
		}

		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				msg = "token expired"
			}
			log.Debug().Err(err).Str("component", "auth").Str("path", c.Request.URL.Path).Msg("Token rejected")
			abortUnauthorized(c, msg)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not in roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "access denied"})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetActor returns the authenticated caller.
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{UserID: c.GetString(ContextUserID), Role: c.GetString(ContextRole)}
}

// RequireUserID writes a 401 and returns false when no user is in context.
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		abortUnauthorized(c, "user not authenticated")
		return "", false
	}
	return userID, true
}
