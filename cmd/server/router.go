package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thereayou/flux/internal/handlers"
)

// Handlers все обработчики HTTP API
type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Group      *handlers.GroupHandler
	File       *handlers.FileHandler
	Task       *handlers.TaskHandler
	Repository *handlers.RepositoryHandler
	Search     *handlers.SearchHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler
}

// Guards middleware доступа: Auth требует токен, Optional допускает анонима
type Guards struct {
	Auth     gin.HandlerFunc
	Optional gin.HandlerFunc
	WS       gin.HandlerFunc
	Timeout  gin.HandlerFunc
}

func APIEndpoints(r *gin.Engine, h Handlers, g Guards) {
	r.GET("/healthz", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.WebSocket != nil {
		r.GET("/ws", g.WS, h.WebSocket.HandleWebSocket)
	}

	// Auth endpoints
	auth := r.Group("/auth", g.Timeout)
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", g.Auth, h.Auth.Logout)
	}

	api := r.Group("/api/v1", g.Timeout)

	me := api.Group("/me", g.Auth)
	{
		me.GET("", h.User.GetMe)
		me.PUT("", h.User.UpdateMe)
		me.POST("/avatar", h.User.UploadAvatar)
		me.DELETE("/avatar", h.User.DeleteAvatar)
		me.GET("/schedule", h.User.GetSchedule)
		me.PUT("/schedule", h.User.PutSchedule)
		me.GET("/favorites", h.Repository.GetFavorites)
	}
	api.GET("/users/:id/profile", g.Auth, h.User.GetProfile)

	groups := api.Group("/groups")
	{
		groups.GET("", g.Auth, h.Group.GetMyGroups)
		groups.POST("", g.Auth, h.Group.CreateGroup)
		groups.GET("/code/:code", g.Optional, h.Group.PreviewGroup)
		groups.POST("/join", g.Auth, h.Group.JoinGroup)

		groups.PATCH("/:id/name", g.Auth, h.Group.RenameGroup)
		groups.PATCH("/:id/visibility", g.Auth, h.Group.SetVisibility)
		groups.DELETE("/:id/members/:memberId", g.Auth, h.Group.KickMember)
		groups.POST("/:id/leave", g.Auth, h.Group.LeaveGroup)
		groups.DELETE("/:id", g.Auth, h.Group.DeleteGroup)

		groups.GET("/:id/stream", g.Optional, h.Group.GetStream)
		groups.POST("/:id/announcements", g.Auth, h.Group.PostAnnouncement)

		groups.GET("/:id/files", g.Optional, h.File.ListGroupFiles)
		groups.POST("/:id/files", g.Auth, h.File.UploadGroupFiles)
		groups.DELETE("/:id/files/:fileId", g.Auth, h.File.DeleteGroupFile)

		groups.GET("/:id/tasks", g.Auth, h.Task.ListTasks)
		groups.POST("/:id/tasks", g.Auth, h.Task.AddTask)
		groups.PATCH("/:id/tasks/:taskId", g.Auth, h.Task.ToggleTask)
		groups.DELETE("/:id/tasks/:taskId", g.Auth, h.Task.DeleteTask)
	}

	repos := api.Group("/repos")
	{
		repos.POST("", g.Auth, h.Repository.CreateRepository)
		repos.GET("/:id", g.Optional, h.Repository.GetRepository)
		repos.DELETE("/:id", g.Auth, h.Repository.DeleteRepository)

		repos.GET("/:id/files", g.Optional, h.File.ListRepositoryFiles)
		repos.POST("/:id/files", g.Auth, h.File.UploadRepositoryFiles)
		repos.DELETE("/:id/files/:fileId", g.Auth, h.File.DeleteRepositoryFile)

		repos.PUT("/:id/rating", g.Auth, h.Repository.Rate)
		repos.POST("/:id/favorite", g.Auth, h.Repository.AddFavorite)
		repos.DELETE("/:id/favorite", g.Auth, h.Repository.RemoveFavorite)

		repos.POST("/:id/collaborators", g.Auth, h.Repository.AddCollaborator)
		repos.DELETE("/:id/collaborators/:userId", g.Auth, h.Repository.RemoveCollaborator)
	}

	api.GET("/search", g.Optional, h.Search.Search)
}
