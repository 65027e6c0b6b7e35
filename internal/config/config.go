// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the runtime settings for the server.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// PasswordHash is the bcrypt hash guarding the API. Empty disables
	// authentication, the usual single-machine setup.
	PasswordHash string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getenv("AGENDA_PORT", "8080"),
		DBPath:       getenv("AGENDA_DB_PATH", "agenda.db"),
		LogLevel:     getenv("AGENDA_LOG_LEVEL", "info"),
		PasswordHash: os.Getenv("AGENDA_PASSWORD_HASH"),
	}

	// A plaintext password may be given instead of a hash; it is hashed
	// at startup so the rest of the code only ever sees the hash.
	if pw := os.Getenv("AGENDA_PASSWORD"); pw != "" && cfg.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return Config{}, fmt.Errorf("hash password: %w", err)
		}
		cfg.PasswordHash = string(hash)
	}

	return cfg, nil
}

// AuthEnabled reports whether login is required.
func (c Config) AuthEnabled() bool {
	return c.PasswordHash != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
