package main

import (
	"context"
	"log"
	"time"

	"lifeflow-server/config"
	"lifeflow-server/internal/handler"
	"lifeflow-server/internal/redis"
	"lifeflow-server/internal/repository"
	"lifeflow-server/internal/server"
	"lifeflow-server/internal/services"
	"lifeflow-server/internal/storage"
	"lifeflow-server/internal/websocket"
	"lifeflow-server/pkg/database"
	"lifeflow-server/pkg/logger"
)

const cleanupInterval = time.Hour

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)
	defer l.Logger.Sync()

	database.Connect(cfg)
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})

	publisher := redis.NewPublisher(redis.GetClient())
	subscriber := redis.NewSubscriber(redis.GetClient())

	userRepo := repository.NewUserRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	msgRepo := repository.NewMessageRepository(database.DB)
	notifRepo := repository.NewNotificationRepository(database.DB)
	followRepo := repository.NewFollowRepository(database.DB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	hub.SetPresenceNotifier(websocket.NewPresencePublisher(convRepo, publisher, l))
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(subscriber, hub)
	go func() {
		if err := bridge.Run(ctx); err != nil {
			l.Errorf("Redis bridge stopped: %s", err)
		}
	}()

	var s3Client *storage.Client
	if cfg.S3Bucket != "" {
		var err error
		s3Client, err = storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			PresignTTL: 15 * time.Minute,
		})
		if err != nil {
			l.Warnf("S3 disabled, attachment uploads unavailable: %s", err)
		}
	}

	authService := services.NewAuthService(userRepo, cfg)
	messagingService := services.NewMessagingService(database.DB, convRepo, msgRepo, userRepo, publisher, hub, l)
	notificationService := services.NewNotificationService(notifRepo, userRepo, followRepo, publisher, l)
	followService := services.NewFollowService(followRepo, userRepo, notificationService, publisher, l)
	userService := services.NewUserService(userRepo, hub)
	uploadService := services.NewUploadService(s3Client, msgRepo, convRepo)

	go runNotificationCleanup(ctx, notificationService, l)

	wsHandler := websocket.NewHandler(authService, userRepo, hub, websocket.NewChannelAuthorizer(convRepo), publisher, l)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Conversations: handler.NewConversationHandler(messagingService),
		Messages:      handler.NewMessageHandler(messagingService, uploadService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Follows:       handler.NewFollowHandler(followService),
		Users:         handler.NewUserHandler(userService, followService),
		WS:            wsHandler,
	}, authService)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runNotificationCleanup(ctx context.Context, svc *services.NotificationService, l *logger.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := svc.CleanupOld(ctx)
			if err != nil {
				l.Errorf("Notification cleanup failed: %s", err)
				continue
			}
			if deleted > 0 {
				l.Infof("Notification cleanup removed %d expired rows", deleted)
			}
		}
	}
}
