package main

import (
	"log"

	"fanclub/pkg/config"
	"fanclub/services/notification/internal/app"
)

// @title           Notification Service API
// @version         1.0
// @description     Notification inbox, unread counts and the unread-count websocket

// @host      localhost:8003
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browsers use the session cookie instead.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if !cfg.HasCustomJWTSecret() {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("failed to start notification service: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("failed to run notification service: %v", err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		log.Fatalf("notification service stopped with error: %v", err)
	}
}
