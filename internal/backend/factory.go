package backend

import (
	"context"
	"fmt"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/storage/memory"
	"github.com/Avishkar0827/Expense-Manager/internal/storage/mongo"
	"github.com/Avishkar0827/Expense-Manager/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	amqpClient := f.connectAMQP(config)

	f.logger.Info("Initialized memory backend",
		log.FieldBackend, config.Type.String(),
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Stores:     store.Stores(),
		AMQPClient: amqpClient,
		Cleanup:    closeAll(nil, amqpClient),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}
	amqpClient := f.connectAMQP(config)

	f.logger.Info("Initialized SQLite backend",
		log.FieldBackend, config.Type.String(),
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Stores:     store.Stores(),
		AMQPClient: amqpClient,
		Cleanup:    closeAll(store.Close, amqpClient),
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := mongo.Open(ctx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB storage: %w", err)
	}
	amqpClient := f.connectAMQP(config)

	f.logger.Info("Initialized MongoDB backend",
		log.FieldBackend, config.Type.String(),
		"database", config.MongoDatabase,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Stores:     store.Stores(),
		AMQPClient: amqpClient,
		Cleanup: closeAll(func() error {
			return store.Close(context.Background())
		}, amqpClient),
	}, nil
}

// connectAMQP dials the event broker when configured. Failure to
// connect is logged and tolerated; the engine runs without events.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events",
			log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func closeAll(closeStore func() error, amqpClient *amqp.Client) CleanupFunc {
	return func() error {
		var errs []error
		if closeStore != nil {
			if err := closeStore(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}
}
