package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rebornapp/reborn-golang/internal/auth"
)

// SubjectKey is the context key the auth guard stores the token subject
// under.
const SubjectKey = "subject"

// Auth guards a route group behind bearer-token verification.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}

		subject, err := verifier.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// RequireJSON rejects requests whose body is not application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "application/json") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only JSON requests are allowed"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireJSONOrMultipart guards the item create/update routes, which accept
// either a JSON body or a multipart form carrying image files.
func RequireJSONOrMultipart() gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := c.ContentType()
		if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "multipart/form-data") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only JSON or multipart requests are allowed"})
			c.Abort()
			return
		}
		c.Next()
	}
}
