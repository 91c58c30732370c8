// Package middleware holds the request filters shared by every
// authenticated route group.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"knowledge-assistant/internal/pkg/jwtutil"
	"knowledge-assistant/internal/transport/http/response"
)

// Context keys set by AuthJWT. Handlers read the user id to scope every
// lookup to the token's owner.
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthJWT verifies the bearer token and stores its identity in the request
// context. Requests without a valid token never reach the handler.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !found {
		return "", false
	}
	token := strings.TrimSpace(rest)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, message)
	c.Abort()
}
