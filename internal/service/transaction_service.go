package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"product_transactions/internal/domain"
	"product_transactions/internal/repository"
)

// QueryOptions configures how query parameters become store filters
type QueryOptions struct {
	Mode       domain.FilterMode
	Location   *time.Location
	MaxPerPage int
}

// TransactionService handles the transaction listing
type TransactionService struct {
	store      repository.TransactionStore
	mode       domain.FilterMode
	loc        *time.Location
	maxPerPage int
	now        func() time.Time
}

// NewTransactionService creates a listing service over store
func NewTransactionService(store repository.TransactionStore, opts QueryOptions) *TransactionService {
	if opts.Mode == "" {
		opts.Mode = domain.FilterModeStrict
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxPerPage <= 0 {
		opts.MaxPerPage = 100
	}
	return &TransactionService{
		store:      store,
		mode:       opts.Mode,
		loc:        opts.Location,
		maxPerPage: opts.MaxPerPage,
		now:        time.Now,
	}
}

// normalize clamps pagination into usable bounds
func (s *TransactionService) normalize(q domain.ListQuery) domain.ListQuery {
	if q.Page < 1 {
		q.Page = domain.DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = domain.DefaultPerPage
	}
	if q.PerPage > s.maxPerPage {
		q.PerPage = s.maxPerPage
	}
	// keep (page-1)*perPage within int64; such a page is past the end anyway
	if maxSkipPages := math.MaxInt64 / int64(q.PerPage); int64(q.Page-1) > maxSkipPages {
		q.Page = int(maxSkipPages) + 1
	}
	return q
}

// ListTransactions returns one page of matching transactions and the total
// number of matches
func (s *TransactionService) ListTransactions(ctx context.Context, q domain.ListQuery) (*domain.TransactionPage, error) {
	q = s.normalize(q)
	f := domain.BuildListFilter(q.FilterParams, s.mode, s.now(), s.loc)

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs, err := s.store.Find(ctx, f, q.Skip(), int64(q.PerPage))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &domain.TransactionPage{
		Transactions: txs,
		Total:        total,
		Page:         q.Page,
		PerPage:      q.PerPage,
	}, nil
}
