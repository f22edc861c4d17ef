package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fanclub/pkg/cache"
	"fanclub/pkg/config"
	"fanclub/pkg/database"
	"fanclub/pkg/jwt"
	"fanclub/pkg/logger"
	"fanclub/pkg/middleware"
	"fanclub/pkg/queue"
	notificationHTTP "fanclub/services/notification/internal/controller/http"
	notificationCache "fanclub/services/notification/internal/repo/cache"
	"fanclub/services/notification/internal/repo/persistent"
	"fanclub/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "fanclub/services/notification/docs" // Swagger docs
)

const serviceName = "notification"

var allowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	queueClient *queue.Client
	jwtService  *jwt.Service

	notificationUseCase usecase.NotificationUseCase
	inbox               notificationCache.Inbox

	httpServer *http.Server
	group      *errgroup.Group
	groupCtx   context.Context
	cancel     context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithLevel(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	// notifications live in redis, so unlike the other services it is required here
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		return nil, err
	}

	inbox := notificationCache.NewInbox(redisClient)
	return &App{
		cfg:                 cfg,
		log:                 log,
		db:                  db,
		redisClient:         redisClient,
		queueClient:         queueClient,
		jwtService:          jwt.NewService(cfg.JWTSecret),
		inbox:               inbox,
		notificationUseCase: usecase.NewNotificationUseCase(persistent.NewUserRepository(db), inbox, log),
	}, nil
}

func (a *App) Router() *gin.Engine {
	notificationHandler := notificationHTTP.NewNotificationHandler(a.notificationUseCase, a.cfg.ClampPageSize)
	streamHandler := notificationHTTP.NewStreamHandler(a.notificationUseCase, a.inbox, allowedOrigins, a.log)

	requireAuth := middleware.AuthMiddleware(a.jwtService,
		middleware.WithSessionCookie(a.cfg.SessionCookieName),
		middleware.WithRevocation(cache.NewRevocations(a.redisClient)),
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(a.log))
	r.Use(middleware.Metrics(serviceName))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		depth, err := a.queueClient.GetQueueLength()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "queue unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "queue_length": depth})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/ws/notifications", requireAuth, streamHandler.Stream)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimitPerMinute, time.Minute, a.log))
	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
		notifications.POST("/read", notificationHandler.MarkRead)
		notifications.GET("/mutes/:creator_id", notificationHandler.GetMute)
		notifications.POST("/mutes/:creator_id", notificationHandler.Mute)
		notifications.DELETE("/mutes/:creator_id", notificationHandler.Unmute)
	}

	return r
}

// Run starts the HTTP server and the queue consumer. If either stops with an
// error the other is cancelled and Wait returns.
func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.group, a.groupCtx = errgroup.WithContext(ctx)

	a.group.Go(func() error {
		a.log.Info("Notification service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	a.group.Go(func() error {
		a.log.Info("Starting notification queue consumer...")
		if err := a.queueClient.Consume(a.groupCtx, a.notificationUseCase.HandleEvent); err != nil {
			return fmt.Errorf("queue consumer: %w", err)
		}
		return nil
	})

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-a.groupCtx.Done():
		a.log.Error("A component stopped unexpectedly")
	}
	a.log.Info("Shutting down notification service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
	}
	runErr := a.group.Wait()
	if runErr != nil {
		a.log.Error("Notification service failed: %v", runErr)
	}

	if err := a.queueClient.Close(); err != nil {
		a.log.Error("Error closing RabbitMQ: %v", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}
	if err := a.redisClient.Close(); err != nil {
		a.log.Error("Error closing Redis: %v", err)
	}

	a.log.Info("Notification service exited")
	_ = a.log.Sync()
	return runErr
}
