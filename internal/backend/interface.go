package backend

import (
	"context"

	"donations/internal/source"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the data source and an optional cleanup function.
// Pinger is nil for backends with nothing to ping.
type BackendResult struct {
	Source  source.DonationSource
	Pinger  source.Pinger
	Cleanup CleanupFunc
}

// Factory creates data sources based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend specific
	CSVPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
