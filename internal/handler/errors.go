package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
)

// respondUpstreamError maps an upstream failure onto the gateway's envelope.
// A 401 from the backend destroys the local session before answering 401, so
// the next check fails fast instead of replaying a dead token.
func respondUpstreamError(c *gin.Context, guard *session.Guard, userID string, err error) {
	if errors.Is(err, upstream.ErrUnauthorized) {
		if guard != nil && userID != "" {
			guard.Logout(userID)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		message := apiErr.Message
		if message == "" {
			message = "Request failed"
		}
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Unable to reach property service"})
}
