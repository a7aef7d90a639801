// Package backend builds the profile store selected by configuration,
// together with the optional event publisher that goes with it.
package backend

import (
	"context"

	"greefin/internal/ports"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Result is a ready-to-use store. Publisher is nil when events are disabled.
type Result struct {
	Store     ports.ProfileStore
	Publisher ports.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Event publishing; only used with the sqlite backend since the worker
	// reads profiles from the database.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
