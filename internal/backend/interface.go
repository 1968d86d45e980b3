package backend

import (
	"context"

	"energi/internal/dataset"
	"energi/internal/ledger"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the constructed store, an optional publisher for the day
// replication pipeline, and an optional cleanup function.
type Result struct {
	Store     dataset.Store
	Publisher ledger.Publisher
	Cleanup   CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// CSV specific
	DataDir string

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type selects which store implementation backs the ledger.
type Type string

const (
	MemoryBackend Type = "memory"
	CSVBackend    Type = "csv"
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, CSVBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
