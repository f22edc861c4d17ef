package app

import (
	"context"
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
	"fanclub/pkg/s3"
	creatorHTTP "fanclub/services/creator/internal/controller/http"
	creatorCache "fanclub/services/creator/internal/repo/cache"
	"fanclub/services/creator/internal/repo/persistent"
	"fanclub/services/creator/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "fanclub/services/creator/docs" // Swagger docs
)

const serviceName = "creator"

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithLevel(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (continuing without cache)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (continuing without notifications)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		queueClient: queueClient,
		jwtService:  jwt.NewService(cfg.JWTSecret),
	}, nil
}

// publisher avoids handing a typed nil *queue.Client to the use cases.
func (a *App) publisher() queue.Publisher {
	if a.queueClient == nil {
		return nil
	}
	return a.queueClient
}

func (a *App) Router() *gin.Engine {
	postingRepo := persistent.NewPostingRepository(a.db)
	membershipRepo := persistent.NewMembershipRepository(a.db)
	creatorRepo := persistent.NewCreatorRepository(a.db)
	entCache := creatorCache.NewEntitlementCache(a.redisClient)

	postingUseCase := usecase.NewPostingUseCase(postingRepo, membershipRepo, a.s3Client, a.cfg.S3BucketName, a.publisher(), entCache, a.log)
	membershipUseCase := usecase.NewMembershipUseCase(membershipRepo, a.publisher(), entCache, a.log)
	creatorUseCase := usecase.NewCreatorUseCase(creatorRepo, a.publisher(), a.log)

	postingHandler := creatorHTTP.NewPostingHandler(postingUseCase, a.cfg.ClampPageSize)
	membershipHandler := creatorHTTP.NewMembershipHandler(membershipUseCase)
	creatorHandler := creatorHTTP.NewCreatorHandler(creatorUseCase, a.cfg.ClampPageSize)

	authOpts := []middleware.AuthOption{
		middleware.WithSessionCookie(a.cfg.SessionCookieName),
		middleware.WithRevocation(cache.NewRevocations(a.redisClient)),
	}
	requireAuth := middleware.AuthMiddleware(a.jwtService, authOpts...)
	optionalAuth := middleware.OptionalAuth(a.jwtService, authOpts...)
	creatorOnly := middleware.RequireRole("creator")

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(a.log))
	r.Use(middleware.Metrics(serviceName))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimitPerMinute, time.Minute, a.log))
	{
		postings := api.Group("/postings")
		{
			postings.GET("", optionalAuth, postingHandler.ListPostings)
			postings.GET("/:id", optionalAuth, postingHandler.GetPosting)
			postings.POST("/:id/view", optionalAuth, postingHandler.RecordView)

			postings.POST("", requireAuth, creatorOnly, postingHandler.CreatePosting)
			postings.DELETE("/:id", requireAuth, postingHandler.DeletePosting)
			postings.POST("/:id/like", requireAuth, postingHandler.Like)
			postings.DELETE("/:id/like", requireAuth, postingHandler.Unlike)
			postings.POST("/:id/purchase", requireAuth, postingHandler.Purchase)
		}

		creators := api.Group("/creators")
		{
			creators.GET("", optionalAuth, creatorHandler.ListCreators)
			creators.GET("/:id/tiers", membershipHandler.ListTiers)
			creators.POST("/:id/follow", requireAuth, creatorHandler.Follow)
			creators.DELETE("/:id/follow", requireAuth, creatorHandler.Unfollow)
		}

		tiers := api.Group("/tiers")
		tiers.Use(requireAuth)
		{
			tiers.POST("", creatorOnly, membershipHandler.CreateTier)
			tiers.PATCH("/:id", creatorOnly, membershipHandler.UpdateTier)
			tiers.DELETE("/:id", creatorOnly, membershipHandler.DeleteTier)
			tiers.POST("/:id/subscribe", membershipHandler.Subscribe)
			tiers.DELETE("/:id/subscribe", membershipHandler.Unsubscribe)
		}

		api.GET("/me/entitlements", requireAuth, membershipHandler.Entitlements)
	}

	return r
}

func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("Creator service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down creator service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	a.log.Info("Creator service exited")
	_ = a.log.Sync()
	return nil
}
