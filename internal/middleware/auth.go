package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scrumkit/internal/utils"
)

// AuthMiddleware rejects requests without a valid Bearer token and
// puts the authenticated user id on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware parses a Bearer token when one is present but
// lets anonymous requests through. Session endpoints use it: open and
// passworded sessions accept anonymous clients, workspace sessions
// check the user id downstream.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
		// WebSocket clients cannot set headers from the browser, so the
		// token may arrive as a query parameter instead.
		if token == "" {
			token = c.Query("token")
		}
		if token != "" {
			if claims, err := utils.ParseToken(token); err == nil {
				c.Set("userID", claims.UserID)
			}
		}
		c.Next()
	}
}
