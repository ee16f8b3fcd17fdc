package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devai-server/internal/service"
	"devai-server/internal/token"
)

// maxBodyBytes caps request bodies; generated images arrive base64-encoded
// in JSON and can be large.
const maxBodyBytes = 50 << 20

const userContextKey = "user"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func bodyLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}

// authMiddleware guards routes behind a bearer token. A missing, malformed,
// expired, or forged token is rejected with the same 401 message; on success
// the resolved user (without its password hash) is attached to the context.
func authMiddleware(tokens *token.Service, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			rejectUnauthorized(c)
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			rejectUnauthorized(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			rejectUnauthorized(c)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func rejectUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Not authorized to access this route",
	})
}
