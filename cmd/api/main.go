package main

import (
	"log"

	"github.com/mobilemart/mobilemart-golang/internal/auth"
	"github.com/mobilemart/mobilemart-golang/internal/config"
	"github.com/mobilemart/mobilemart-golang/internal/database"
	"github.com/mobilemart/mobilemart-golang/internal/handlers"
	"github.com/mobilemart/mobilemart-golang/internal/routes"
)

func main() {
	// 1. Load configuration (.env + environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load configuration: %v", err)
	}

	// 2. Connect to the database
	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	// 3. Ensure the schema exists
	if err := database.Migrate(db); err != nil {
		log.Fatalf("FATAL: Could not run migrations: %v", err)
	}

	// 4. Configure token signing
	auth.SetSecret(cfg.JWTSecret)

	// 5. Wire handlers and routes
	h := &handlers.Handlers{DB: db}
	router := routes.SetupRouter(h)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("FATAL: Server failed to start: %v", err)
	}
}
