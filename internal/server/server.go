package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeflow-server/config"
	"lifeflow-server/internal/handler"
	"lifeflow-server/internal/middleware"
	"lifeflow-server/internal/services"
	"lifeflow-server/internal/transport/httpdto"
	"lifeflow-server/internal/websocket"
	"lifeflow-server/pkg/database"
	"lifeflow-server/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Notifications *handler.NotificationHandler
	Follows       *handler.FollowHandler
	Users         *handler.UserHandler
	WS            *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	requireAuth := middleware.AuthMiddleware(authService)

	conversations := s.engine.Group("/v1/conversations", requireAuth)
	{
		conversations.POST("/direct", handlers.Conversations.CreateDirect)
		conversations.POST("/group", handlers.Conversations.CreateGroup)
		conversations.GET("", handlers.Conversations.List)
		conversations.GET("/stats", handlers.Conversations.InboxStats)
		conversations.GET("/:id", handlers.Conversations.GetByID)
		conversations.PATCH("/:id", handlers.Conversations.Update)
		conversations.DELETE("/:id", handlers.Conversations.Delete)
		conversations.POST("/:id/archive", handlers.Conversations.Archive)
		conversations.POST("/:id/unarchive", handlers.Conversations.Unarchive)
		conversations.POST("/:id/read", handlers.Conversations.MarkRead)
		conversations.POST("/:id/messages", handlers.Messages.Send)
		conversations.GET("/:id/messages", handlers.Messages.List)
		conversations.POST("/:id/attachments/presign", handlers.Messages.PresignAttachment)
	}

	messages := s.engine.Group("/v1/messages", requireAuth)
	{
		messages.GET("/search", handlers.Messages.Search)
		messages.PATCH("/:messageId", handlers.Messages.Edit)
		messages.DELETE("/:messageId", handlers.Messages.Delete)
		messages.POST("/:messageId/reactions", handlers.Messages.AddReaction)
		messages.DELETE("/:messageId/reactions", handlers.Messages.RemoveReaction)
		messages.POST("/:messageId/attachments", handlers.Messages.AttachFile)
	}

	notifications := s.engine.Group("/v1/notifications", requireAuth)
	{
		notifications.GET("", handlers.Notifications.List)
		notifications.GET("/unread-count", handlers.Notifications.UnreadCount)
		notifications.GET("/summary", handlers.Notifications.Summary)
		notifications.POST("/:id/read", handlers.Notifications.MarkRead)
		notifications.POST("/read-all", handlers.Notifications.MarkAllRead)
		notifications.DELETE("/old", handlers.Notifications.ClearOld)
		notifications.DELETE("/:id", handlers.Notifications.Delete)
	}

	users := s.engine.Group("/v1/users", requireAuth)
	{
		users.GET("/me", handlers.Users.Me)
		users.PATCH("/me", handlers.Users.UpdateProfile)
		users.GET("/search", handlers.Users.Search)
		users.GET("/me/followers", handlers.Follows.Followers)
		users.GET("/me/following", handlers.Follows.Following)
		users.GET("/:userId", handlers.Users.GetByID)
		users.POST("/:userId/follow", handlers.Follows.Follow)
		users.DELETE("/:userId/follow", handlers.Follows.Unfollow)
		users.POST("/:userId/mute", handlers.Follows.Mute)
		users.DELETE("/:userId/mute", handlers.Follows.Unmute)
	}

	s.engine.GET("/ws", handlers.WS.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
