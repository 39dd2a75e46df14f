package repository

import (
	"context"
	"fmt"

	"product_transactions/internal/db"
	"product_transactions/internal/logger"
)

// StoreConfig selects and locates the document store
type StoreConfig struct {
	Backend       string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// OpenStore connects the configured backend. The caller owns the returned
// store and must Close it.
func OpenStore(ctx context.Context, cfg StoreConfig) (TransactionStore, error) {
	switch cfg.Backend {
	case BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewTransactionRepository(pool), nil

	case BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		repo := NewMongoTransactionRepository(client, cfg.MongoDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case BackendMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return NewMemoryTransactionRepository(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
