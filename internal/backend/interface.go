package backend

import (
	"context"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the stores, the optional event client and a
// cleanup function releasing both
type BackendResult struct {
	Stores     storage.Stores
	AMQPClient *amqp.Client
	Cleanup    CleanupFunc
}

// Factory creates storage backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
