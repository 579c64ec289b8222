// Package config loads server settings from the environment. A .env file
// in the working directory is picked up when present, real environment
// variables win over it.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Command line flags override these.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
}

// New loads configuration from environment variables with sensible defaults.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		DBPath:    getEnv("LAGERKASSE_DB", "lagerkasse.sqlite3"),
		Addr:      getEnv("LAGERKASSE_ADDR", ":8080"),
		AdminUser: getEnv("LAGERKASSE_ADMIN", "Admin"),
		LogPath:   os.Getenv("LAGERKASSE_LOG"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
