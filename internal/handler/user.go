package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/middleware"
	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
)

type UserHandler struct {
	Backend *upstream.Client
	Guard   *session.Guard
}

func (h *UserHandler) List(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)
	page, limit := pageParams(c)

	users, pagination, err := h.Backend.ListUsers(c.Request.Context(), res.Credentials.AccessToken, page, limit)
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       gin.H{"users": users},
		"pagination": pagination,
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)

	user, err := h.Backend.GetUser(c.Request.Context(), res.Credentials.AccessToken, c.Param("id"))
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": user}})
}

type userStatusBody struct {
	Status string `json:"status"`
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	res, _ := middleware.SessionFromContext(c)

	var body userStatusBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	user, err := h.Backend.UpdateUserStatus(c.Request.Context(), res.Credentials.AccessToken, c.Param("id"), body.Status)
	if err != nil {
		respondUpstreamError(c, h.Guard, res.UserID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": user}})
}
