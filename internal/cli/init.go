// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/presupuesto and cmd/presupuesto-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"presupuesto/internal/auth"
	authgotrue "presupuesto/internal/auth/gotrue"
	authmemory "presupuesto/internal/auth/memory"
	"presupuesto/internal/config"
	"presupuesto/internal/log"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets the embedded slog logger as
// the process default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg)
	slog.SetDefault(logger.Logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// BuildAuthProvider wires the identity provider selected by AUTH_BACKEND.
// Returns the provider plus the token codec shared with the HTTP layer,
// or exits the process on an unknown backend.
func BuildAuthProvider(logger *log.Logger, cfg *config.Config) (auth.Provider, *auth.Tokens) {
	tokens := auth.NewTokens(cfg.AuthJWTSecret, 0)

	switch cfg.AuthBackend {
	case "gotrue":
		logger.Info("Initialized GoTrue auth backend", "url", cfg.AuthURL)
		return authgotrue.New(cfg.AuthURL), tokens
	case "memory":
		logger.Info("Initialized memory auth backend")
		return authmemory.New(tokens), tokens
	default:
		logger.Error("Unknown auth backend", "backend", cfg.AuthBackend)
		os.Exit(1)
		return nil, nil
	}
}
