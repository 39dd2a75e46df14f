package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"product_transactions/internal/domain"
)

// MemoryTransactionRepository keeps transactions in process memory.
// Used for local runs without a database and in tests.
type MemoryTransactionRepository struct {
	mu     sync.RWMutex
	items  []*domain.Transaction
	bySrc  map[int64]struct{}
	nextID int64
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{bySrc: make(map[int64]struct{})}
}

func (r *MemoryTransactionRepository) matching(f domain.Filter) []*domain.Transaction {
	var out []*domain.Transaction
	for _, tx := range r.items {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (r *MemoryTransactionRepository) Find(ctx context.Context, f domain.Filter, skip, limit int64) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.matching(f)
	result := make([]*domain.Transaction, 0)
	if skip < 0 || skip >= int64(len(all)) {
		return result, nil
	}
	end := int64(len(all))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	for _, tx := range all[skip:end] {
		cp := *tx
		result = append(result, &cp)
	}
	return result, nil
}

func (r *MemoryTransactionRepository) Count(ctx context.Context, f domain.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.matching(f))), nil
}

func (r *MemoryTransactionRepository) SumPrice(ctx context.Context, f domain.Filter) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	for _, tx := range r.matching(f) {
		sum += tx.Price
	}
	return sum, nil
}

func (r *MemoryTransactionRepository) PriceHistogram(ctx context.Context, f domain.Filter) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make([]int64, len(domain.PriceBoundaries))
	for _, tx := range r.matching(f) {
		i, err := domain.BucketIndex(tx.Price)
		if err != nil {
			return nil, err
		}
		counts[i]++
	}
	return counts, nil
}

func (r *MemoryTransactionRepository) CountByCategory(ctx context.Context, f domain.Filter) ([]*domain.CategoryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := make(map[string]*domain.CategoryCount)
	for _, tx := range r.matching(f) {
		cc, ok := idx[tx.Category]
		if !ok {
			cc = &domain.CategoryCount{Category: tx.Category}
			idx[tx.Category] = cc
		}
		cc.Count++
	}

	result := make([]*domain.CategoryCount, 0, len(idx))
	for _, cc := range idx {
		result = append(result, cc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

func (r *MemoryTransactionRepository) InsertMany(ctx context.Context, txs []*domain.Transaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inserted int64
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		if tx.SourceID != nil {
			if _, dup := r.bySrc[*tx.SourceID]; dup {
				continue
			}
			r.bySrc[*tx.SourceID] = struct{}{}
		}
		r.nextID++
		cp := *tx
		cp.ID = strconv.FormatInt(r.nextID, 10)
		tx.ID = cp.ID
		r.items = append(r.items, &cp)
		inserted++
	}
	return inserted, nil
}

func (r *MemoryTransactionRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryTransactionRepository) Close() {}
