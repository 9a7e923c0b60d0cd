package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scrumkit/internal/api/handlers"
	"scrumkit/internal/middleware"
	"scrumkit/internal/service"
	"scrumkit/internal/session"
)

func SetupRoutes(r *gin.Engine, services *service.Services, engine *session.Engine) {
	authHandler := handlers.NewAuthHandler(services.User)
	catalogHandler := handlers.NewCatalogHandler(services.Catalog)
	workspaceHandler := handlers.NewWorkspaceHandler(services.Workspace)
	velocityHandler := handlers.NewVelocityHandler(services.Velocity)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := r.Group("/api")

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	// Public routes.
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// Session catalog: anonymous clients may create and inspect open or
	// passworded sessions; workspace sessions need a member's token.
	mixed := api.Group("/")
	mixed.Use(middleware.OptionalAuthMiddleware())
	{
		mixed.POST("/rooms", catalogHandler.CreateRoom)
		mixed.GET("/rooms/:id", catalogHandler.GetRoom)
		mixed.POST("/boards", catalogHandler.CreateBoard)
		mixed.GET("/boards/:id", catalogHandler.GetBoard)
	}

	// The two live-session namespaces.
	ws := r.Group("/ws")
	ws.Use(middleware.OptionalAuthMiddleware())
	{
		ws.GET("/poker", wsHandler.HandlePoker)
		ws.GET("/retro", wsHandler.HandleRetro)
	}

	// Workspace and reporting routes require a valid token.
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		workspaces := authorized.Group("/workspaces")
		{
			workspaces.POST("", workspaceHandler.Create)
			workspaces.GET("", workspaceHandler.List)
			workspaces.POST("/:id/members", workspaceHandler.AddMember)
			workspaces.POST("/:id/velocity", velocityHandler.Record)
			workspaces.GET("/:id/velocity/report", velocityHandler.Report)
		}
	}
}
