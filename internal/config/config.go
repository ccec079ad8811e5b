package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment.
type Config struct {
	ServerPort  string
	DatabaseDSN string
	JWTSecret   string
}

// Load reads the .env file (if present) and then the environment.
// The database DSN is the only hard requirement; the port and the
// JWT secret have development defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN must be set")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "MobileECommerce2025"
	}

	return &Config{
		ServerPort:  port,
		DatabaseDSN: dsn,
		JWTSecret:   secret,
	}, nil
}
