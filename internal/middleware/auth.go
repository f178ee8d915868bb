package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/model"
	"estate-admin/internal/session"
)

const sessionContextKey = "adminSession"

func SessionFromContext(c *gin.Context) (session.Result, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return session.Result{}, false
	}
	res, ok := value.(session.Result)
	return res, ok && res.Outcome == session.Authenticated
}

// RequireSession guards a route group. Role mismatches answer exactly like a
// missing session so nothing about the account can be inferred.
func RequireSession(guard *session.Guard, requiredRole model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
			c.Abort()
			return
		}

		res := guard.Check(c.Request.Context(), parts[1], requiredRole)
		if res.Outcome != session.Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
			c.Abort()
			return
		}

		c.Set(sessionContextKey, res)
		c.Next()
	}
}
