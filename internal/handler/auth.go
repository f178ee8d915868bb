package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/auth"
	"estate-admin/internal/credstore"
	"estate-admin/internal/middleware"
	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
)

type AuthHandler struct {
	Backend     *upstream.Client
	Store       *credstore.Store
	Guard       *session.Guard
	StrictGuard *session.Guard
	TokenConfig auth.TokenConfig
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login proxies the credential check upstream. Every failure mode answers
// with the same message so nothing leaks about which half was wrong.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	result, err := h.Backend.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	stored := h.Store.Set(result.User.ID, credstore.Credentials{
		AccessToken:  result.Token,
		RefreshToken: result.RefreshToken,
		Email:        result.User.Email,
		User:         result.User,
	})
	if !stored {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}

	gatewayToken, err := auth.CreateToken(result.User.ID, string(result.User.Role), h.TokenConfig)
	if err != nil {
		h.Store.Clear(result.User.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Token creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"token": gatewayToken, "user": result.User},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	res, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}
	h.Guard.Logout(res.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Verify always runs the strict variant regardless of how the route guard is
// configured; it exists so the dashboard can re-validate on demand.
func (h *AuthHandler) Verify(c *gin.Context) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	token := ""
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		token = parts[1]
	}

	res := h.StrictGuard.Check(c.Request.Context(), token, "")
	if res.Outcome != session.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": res.Credentials.User}})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	res, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}

	if err := h.Guard.Refresh(c.Request.Context(), res.UserID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authentication token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
