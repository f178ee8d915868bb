package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/middleware"
	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
)

type DashboardHandler struct {
	Backend *upstream.Client
	Guard   *session.Guard
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)

	stats, err := h.Backend.GetDashboardStats(c.Request.Context(), res.Credentials.AccessToken)
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *DashboardHandler) ActivityLogs(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)
	page, limit := pageParams(c)

	logs, pagination, err := h.Backend.GetActivityLogs(c.Request.Context(), res.Credentials.AccessToken, page, limit)
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       gin.H{"logs": logs},
		"pagination": pagination,
	})
}
