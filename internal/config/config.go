// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "donations/internal/log"
)

// Data backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port string
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For, on top of
	// loopback and private networks.
	TrustedProxies []string

	// Data source
	DataBackend   string
	SQLiteDBPath  string
	DatabaseURL   string
	MemoryCSVPath string
	QueryTimeout  time.Duration

	// Schools
	SchoolAliases string
	DefaultSchool string

	// Sessions and rate limiting
	SessionTTL      time.Duration
	SessionMax      int
	EventsPerMinute int

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	TallyInterval time.Duration
	// WorkerMetricsPort serves the worker's /metrics; empty disables it.
	WorkerMetricsPort string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8050"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:   getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/merged_data_w_coord.sqlite"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MemoryCSVPath: getEnv("MEMORY_CSV_PATH", "./data/donations.csv"),
		QueryTimeout:  getEnvDuration("QUERY_TIMEOUT", 7*time.Second),

		SchoolAliases: getEnv("SCHOOL_ALIASES", "./data/schools.yaml"),
		DefaultSchool: getEnv("DEFAULT_SCHOOL", "Stanford University"),

		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax:      getEnvInt("SESSION_MAX", 10000),
		EventsPerMinute: getEnvInt("EVENTS_PER_MINUTE", 120),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "donations"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "selection_events"),

		TallyInterval:     getEnvDuration("TALLY_INTERVAL", time.Minute),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	validBackends := []string{BackendSQLite, BackendPostgres, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	case BackendMemory:
		if c.MemoryCSVPath == "" {
			errors = append(errors, "MEMORY_CSV_PATH cannot be empty when using memory backend")
		}
	}

	if c.QueryTimeout < 100*time.Millisecond || c.QueryTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid query timeout %v: must be between 100ms and 1m", c.QueryTimeout))
	}

	if strings.TrimSpace(c.SchoolAliases) == "" {
		errors = append(errors, "SCHOOL_ALIASES cannot be empty")
	}
	if strings.TrimSpace(c.DefaultSchool) == "" {
		errors = append(errors, "DEFAULT_SCHOOL cannot be empty")
	}

	if c.SessionTTL < time.Minute || c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1 minute and 24 hours", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.EventsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid events per minute %d: must be at least 1", c.EventsPerMinute))
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

	if c.TallyInterval < time.Second || c.TallyInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid tally interval %v: must be between 1 second and 24 hours", c.TallyInterval))
	}

	if c.WorkerMetricsPort != "" {
		if port, err := strconv.Atoi(c.WorkerMetricsPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid worker metrics port '%s'", c.WorkerMetricsPort))
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether selection events should be published.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
