package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/hub"
	"estate-admin/internal/middleware"
	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
	"estate-admin/internal/workflow"
)

type PropertyHandler struct {
	Backend  *upstream.Client
	Workflow *workflow.Service
	Guard    *session.Guard
	Hub      *hub.Hub
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (h *PropertyHandler) List(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)
	page, limit := pageParams(c)

	properties, pagination, err := h.Backend.ListProperties(c.Request.Context(), res.Credentials.AccessToken, upstream.ListOptions{
		Page:   page,
		Limit:  limit,
		Status: c.Query("status"),
		Type:   c.Query("type"),
	})
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       gin.H{"properties": properties},
		"pagination": pagination,
	})
}

func (h *PropertyHandler) Pending(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)
	page, limit := pageParams(c)

	properties, pagination, err := h.Backend.PendingProperties(c.Request.Context(), res.Credentials.AccessToken, page, limit)
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       gin.H{"properties": properties},
		"pagination": pagination,
	})
}

func (h *PropertyHandler) Get(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)

	property, err := h.Backend.GetProperty(c.Request.Context(), res.Credentials.AccessToken, c.Param("id"))
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"property":         property,
			"availableActions": workflow.LegalActions(property.Status),
			"busy":             h.Workflow.Busy(property.ID),
		},
	})
}

type transitionBody struct {
	Reason string `json:"reason"`
}

func (h *PropertyHandler) Approve(c *gin.Context)    { h.transition(c, workflow.ActionApprove) }
func (h *PropertyHandler) Reject(c *gin.Context)     { h.transition(c, workflow.ActionReject) }
func (h *PropertyHandler) PullDown(c *gin.Context)   { h.transition(c, workflow.ActionPullDown) }
func (h *PropertyHandler) Reactivate(c *gin.Context) { h.transition(c, workflow.ActionReactivate) }

func (h *PropertyHandler) transition(c *gin.Context, action workflow.Action) {
	res, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}

	// An absent body is fine; approve and reactivate take no reason.
	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	// The current status comes from the backend, not from the request; the
	// workflow validates the transition against it.
	property, err := h.Backend.GetProperty(c.Request.Context(), res.Credentials.AccessToken, c.Param("id"))
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	actor := workflow.Actor{
		ID:    res.UserID,
		Email: res.Credentials.Email,
		Name:  res.Credentials.User.DisplayName(),
		Token: res.Credentials.AccessToken,
	}

	updated, err := h.Workflow.Apply(c.Request.Context(), actor, property, action, body.Reason)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A reason is required for this action"})
		case errors.Is(err, workflow.ErrTransitionNotAllowed):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Action not allowed for current status"})
		case errors.Is(err, workflow.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Another update for this property is in progress"})
		default:
			respondUpstreamError(c, h.Guard, res.UserID, err)
		}
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastEvent(hub.Event{
			Type: hub.EventPropertyStatusChanged,
			Body: gin.H{"propertyId": updated.ID, "status": updated.Status},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"property":         updated,
			"availableActions": workflow.LegalActions(updated.Status),
		},
	})
}
