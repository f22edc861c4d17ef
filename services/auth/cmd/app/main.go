package main

import (
	"log"

	"fanclub/pkg/config"
	"fanclub/services/auth/internal/app"
)

// @title           Auth Service API
// @version         1.0
// @description     Accounts and sessions for the fanclub platform

// @host      localhost:8001
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
		log.Fatalf("failed to start auth service: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("failed to run auth service: %v", err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		log.Fatalf("failed to shut down: %v", err)
	}
}
