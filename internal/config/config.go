package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	DataBackend  string
	SQLiteDBPath string

	// AMQP (optional audit event stream)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Auth
	AuthBackend   string
	AuthURL       string
	AuthJWTSecret string
	SessionCookie string

	// Exchange rates
	RateAPIURL   string
	RateCacheTTL time.Duration
	RateDefault  float64

	// Default general limit for new profiles, in cents.
	GeneralLimitCents int64
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/presupuesto.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "presupuesto"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "audit_events"),

		AuthBackend:   getEnv("AUTH_BACKEND", "memory"),
		AuthURL:       getEnv("AUTH_URL", ""),
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		SessionCookie: getEnv("SESSION_COOKIE", "presupuesto_session"),

		RateAPIURL:   getEnv("RATE_API_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		RateCacheTTL: getEnvDuration("RATE_CACHE_TTL", time.Hour),
		RateDefault:  getEnvFloat("RATE_DEFAULT", 3.75),

		GeneralLimitCents: getEnvInt64("GENERAL_LIMIT_CENTS", 500_000),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every
// violation found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.AuthBackend {
	case "memory":
	case "gotrue":
		if c.AuthURL == "" {
			errors = append(errors, "AUTH_URL is required when using the gotrue auth backend")
		} else if parsedURL, err := url.Parse(c.AuthURL); err != nil || parsedURL.Scheme == "" {
			errors = append(errors, fmt.Sprintf("invalid auth URL '%s'", c.AuthURL))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid auth backend '%s': must be one of [gotrue memory]", c.AuthBackend))
	}

	if c.AuthJWTSecret == "" {
		errors = append(errors, "AUTH_JWT_SECRET cannot be empty")
	}
	if c.SessionCookie == "" {
		errors = append(errors, "session cookie name cannot be empty")
	}

	if c.RateAPIURL != "" {
		if parsedURL, err := url.Parse(c.RateAPIURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid rate API URL '%s'", c.RateAPIURL))
		}
	}
	if c.RateCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at least 1 minute", c.RateCacheTTL))
	} else if c.RateCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at most 24 hours", c.RateCacheTTL))
	}
	if c.RateDefault <= 0 {
		errors = append(errors, fmt.Sprintf("invalid default rate %v: must be positive", c.RateDefault))
	}

	if c.GeneralLimitCents <= 0 {
		errors = append(errors, fmt.Sprintf("invalid general limit %d: must be positive", c.GeneralLimitCents))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
