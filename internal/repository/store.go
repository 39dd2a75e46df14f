package repository

import (
	"context"
	"errors"

	"product_transactions/internal/domain"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// TransactionStore is the document store consumed by the services.
// Find returns documents in insertion order.
type TransactionStore interface {
	Find(ctx context.Context, f domain.Filter, skip, limit int64) ([]*domain.Transaction, error)
	Count(ctx context.Context, f domain.Filter) (int64, error)
	SumPrice(ctx context.Context, f domain.Filter) (float64, error)
	// PriceHistogram returns one count per domain.PriceBoundaries bucket
	PriceHistogram(ctx context.Context, f domain.Filter) ([]int64, error)
	CountByCategory(ctx context.Context, f domain.Filter) ([]*domain.CategoryCount, error)
	// InsertMany returns the number of documents actually inserted;
	// documents whose SourceID already exists may be skipped.
	InsertMany(ctx context.Context, txs []*domain.Transaction) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// Backend names accepted by STORE_BACKEND
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)
