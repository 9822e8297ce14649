package http

import (
	"net/http"
	"strings"

	"edu-quiz-service/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey       = "user_id"
	requestIDHeader = "X-Request-ID"
)

// RequireAuth accepts a bearer token in the Authorization header and stores the user id in the context.
func RequireAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid authorization header format"})
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// RequestID propagates or assigns a request id and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
