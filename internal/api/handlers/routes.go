package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/api/middleware"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Handlers    *Handlers
	Auth        middleware.TokenParser
	WebSocket   gin.HandlerFunc
	AuthLimiter *middleware.RateLimiter
	CORSOrigins []string
	// Health returns extra fields for GET /health.
	Health func() gin.H
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Cannot find %s route on %s request", c.Request.URL.Path, c.Request.Method),
		})
	})

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "healthy", "time": time.Now().UTC()}
		if cfg.Health != nil {
			for k, v := range cfg.Health() {
				body[k] = v
			}
		}
		respond(c, http.StatusOK, body)
	})

	if cfg.WebSocket != nil {
		r.GET("/ws", cfg.WebSocket)
	}

	h := cfg.Handlers
	requireAuth := middleware.AuthMiddleware(cfg.Auth)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			public := auth.Group("")
			if cfg.AuthLimiter != nil {
				public.Use(middleware.RateLimit(cfg.AuthLimiter))
			}
			public.POST("/register", h.Auth.Register)
			public.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)

			auth.GET("/profile", requireAuth, h.User.GetProfile)
			auth.PUT("/profile", requireAuth, h.User.UpdateProfile)
			auth.GET("/users", requireAuth, middleware.RequireRole(types.RoleAdmin), h.User.ListUsers)
		}

		tasks := api.Group("/task", requireAuth)
		{
			tasks.POST("/create-task", h.Task.Create)
			tasks.GET("/get-tasks", h.Task.List)
			tasks.GET("/get-task/:id", h.Task.Get)
			tasks.PUT("/update-task/:id", h.Task.Update)
			tasks.DELETE("/delete-task/:id", h.Task.Delete)
			tasks.GET("/workspace/:workspaceId", h.Task.ListByWorkspace)
		}

		workspaces := api.Group("/workspace", requireAuth)
		{
			workspaces.POST("/create", h.Workspace.Create)
			workspaces.GET("/user-workspaces", h.Workspace.ListMine)
			workspaces.GET("/:id", h.Workspace.Get)
			workspaces.PUT("/update/:id", h.Workspace.Update)
			workspaces.POST("/:id/add-members", h.Workspace.AddMembers)
			workspaces.DELETE("/leave/:id", h.Workspace.Leave)
			workspaces.DELETE("/:id", h.Workspace.Delete)
		}

		notifications := api.Group("/notifications", requireAuth)
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PATCH("/read-all", h.Notification.MarkAllRead)
			notifications.PATCH("/:id/read", h.Notification.MarkRead)
			notifications.PATCH("/:id/unread", h.Notification.MarkUnread)
			notifications.DELETE("/:id", h.Notification.Delete)
		}

		chat := api.Group("/chat", requireAuth)
		{
			chat.POST("/request", h.Chat.SendRequest)
			chat.GET("/requests/pending", h.Chat.PendingRequests)
			chat.POST("/requests/:id/respond", h.Chat.Respond)
			chat.GET("/connections", h.Chat.Connections)
			chat.POST("/send", h.Chat.Send)
			chat.GET("/unread-count", h.Chat.UnreadCount)
			chat.GET("/search", h.Chat.Search)
			chat.GET("/:userId", h.Chat.History)
			chat.PUT("/:id", h.Chat.Edit)
			chat.DELETE("/:id", h.Chat.Delete)
		}
	}

	return r
}
