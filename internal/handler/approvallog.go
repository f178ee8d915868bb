package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/approvallog"
	"estate-admin/internal/workflow"
)

type ApprovalLogHandler struct {
	Logs approvallog.Store
}

func (h *ApprovalLogHandler) List(c *gin.Context) {
	// Entries store the camelCase action; accept the kebab route form too.
	actionFilter := c.Query("action")
	if action, ok := workflow.ParseAction(actionFilter); ok {
		actionFilter = string(action)
	}

	entries, err := h.Logs.Query(c.Request.Context(), approvallog.Filter{
		PropertyID: c.Query("propertyId"),
		AdminEmail: c.Query("adminEmail"),
		Action:     actionFilter,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Unable to read approval logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"logs": entries}})
}

func (h *ApprovalLogHandler) Stats(c *gin.Context) {
	stats, err := h.Logs.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Unable to read approval logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *ApprovalLogHandler) Export(c *gin.Context) {
	data, err := h.Logs.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Unable to export approval logs"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="approval-logs.json"`)
	c.Data(http.StatusOK, "application/json", data)
}
