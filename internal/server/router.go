package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/approvallog"
	"estate-admin/internal/auth"
	"estate-admin/internal/config"
	"estate-admin/internal/credstore"
	"estate-admin/internal/handler"
	"estate-admin/internal/hub"
	"estate-admin/internal/middleware"
	"estate-admin/internal/model"
	"estate-admin/internal/session"
	"estate-admin/internal/upstream"
	"estate-admin/internal/workflow"
)

type Deps struct {
	Config      config.Config
	Store       *credstore.Store
	Backend     *upstream.Client
	Logs        approvallog.Store
	TokenConfig auth.TokenConfig
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	guard := session.NewGuard(deps.Store, deps.TokenConfig, deps.Backend, deps.Config.StrictVerify)
	strictGuard := session.NewGuard(deps.Store, deps.TokenConfig, deps.Backend, true)

	wsHub := hub.New()
	// Sibling connections learn about a logout or forced invalidation right
	// away instead of on their next request.
	deps.Store.OnInvalidate(func(userID string) {
		wsHub.SendEvent(userID, hub.Event{Type: hub.EventSessionInvalidated})
	})

	wf := workflow.NewService(deps.Backend, deps.Logs, nil)

	loginLimiter := middleware.NewRateLimiter(deps.Config.LoginRateLimit, time.Minute)
	authHandler := &handler.AuthHandler{
		Backend:     deps.Backend,
		Store:       deps.Store,
		Guard:       guard,
		StrictGuard: strictGuard,
		TokenConfig: deps.TokenConfig,
	}

	r.POST("/v1/auth/login", middleware.LoginRateLimit(loginLimiter), authHandler.Login)
	r.POST("/v1/auth/verify", authHandler.Verify)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireSession(guard, model.RoleAdmin))
	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/refresh", authHandler.Refresh)

	propertyHandler := &handler.PropertyHandler{Backend: deps.Backend, Workflow: wf, Guard: guard, Hub: wsHub}
	protected.GET("/properties", propertyHandler.List)
	protected.GET("/pending-properties", propertyHandler.Pending)
	protected.GET("/properties/:id", propertyHandler.Get)
	protected.PATCH("/properties/:id/approve", propertyHandler.Approve)
	protected.PATCH("/properties/:id/reject", propertyHandler.Reject)
	protected.PATCH("/properties/:id/pull-down", propertyHandler.PullDown)
	protected.PATCH("/properties/:id/reactivate", propertyHandler.Reactivate)

	userHandler := &handler.UserHandler{Backend: deps.Backend, Guard: guard}
	protected.GET("/users", userHandler.List)
	protected.GET("/users/:id", userHandler.Get)
	protected.PATCH("/users/:id/status", userHandler.UpdateStatus)

	dashboardHandler := &handler.DashboardHandler{Backend: deps.Backend, Guard: guard}
	protected.GET("/dashboard/stats", dashboardHandler.Stats)
	protected.GET("/activity-logs", dashboardHandler.ActivityLogs)

	logHandler := &handler.ApprovalLogHandler{Logs: deps.Logs}
	protected.GET("/approval-logs", logHandler.List)
	protected.GET("/approval-logs/stats", logHandler.Stats)
	protected.GET("/approval-logs/export", logHandler.Export)

	wsHandler := &handler.WebSocketHandler{Hub: wsHub, Guard: guard}
	r.GET("/ws", wsHandler.Serve)

	return r
}
