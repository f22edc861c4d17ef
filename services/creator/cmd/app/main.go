package main

import (
	"log"

	"fanclub/pkg/config"
	"fanclub/services/creator/internal/app"
)

// @title           Creator Service API
// @version         1.0
// @description     Postings, membership tiers, subscriptions and follows

// @host      localhost:8002
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
		log.Fatalf("failed to start creator service: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("failed to run creator service: %v", err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		log.Fatalf("failed to shut down: %v", err)
	}
}
