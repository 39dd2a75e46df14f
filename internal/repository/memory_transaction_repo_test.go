package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"product_transactions/internal/domain"
)

func sample(title, category string, price float64, sold bool, date time.Time) *domain.Transaction {
	return &domain.Transaction{
		ProductTitle: title,
		Category:     category,
		Price:        price,
		IsSold:       sold,
		DateOfSale:   date,
	}
}

func seeded(t *testing.T, txs ...*domain.Transaction) *MemoryTransactionRepository {
	t.Helper()
	repo := NewMemoryTransactionRepository()
	if _, err := repo.InsertMany(context.Background(), txs); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return repo
}

func TestMemoryRepository_PaginationCoversEveryDocumentOnce(t *testing.T) {
	var txs []*domain.Transaction
	base := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 23; i++ {
		txs = append(txs, sample("item", "c", float64(i), i%2 == 0, base.Add(time.Duration(i)*time.Hour)))
	}
	repo := seeded(t, txs...)
	ctx := context.Background()

	total, err := repo.Count(ctx, domain.Filter{})
	if err != nil || total != 23 {
		t.Fatalf("count = %d, %v; want 23", total, err)
	}

	const perPage = 5
	seen := make(map[string]int)
	var order []string
	for page := int64(1); page <= (total+perPage-1)/perPage; page++ {
		got, err := repo.Find(ctx, domain.Filter{}, (page-1)*perPage, perPage)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got) > perPage {
			t.Fatalf("page %d has %d items", page, len(got))
		}
		for _, tx := range got {
			seen[tx.ID]++
			order = append(order, tx.ID)
		}
	}

	if len(seen) != 23 {
		t.Fatalf("expected 23 distinct documents, got %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("document %s seen %d times", id, n)
		}
	}
	for i, tx := range txs {
		if order[i] != tx.ID {
			t.Fatalf("order mismatch at %d: %s != %s", i, order[i], tx.ID)
		}
	}

	past, _ := repo.Find(ctx, domain.Filter{}, 100, perPage)
	if len(past) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(past))
	}

	for _, skip := range []int64{-1, -perPage, math.MinInt64} {
		got, err := repo.Find(ctx, domain.Filter{}, skip, perPage)
		if err != nil {
			t.Fatalf("skip %d: %v", skip, err)
		}
		if len(got) != 0 {
			t.Fatalf("skip %d should yield an empty page, got %d", skip, len(got))
		}
	}
}

func TestMemoryRepository_Aggregations(t *testing.T) {
	d := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)
	repo := seeded(t,
		sample("a", "A", 50, true, d),
		sample("b", "A", 150, false, d),
		sample("c", "B", 999, true, d),
		sample("d", "B", 1200, false, d),
		sample("e", "C", 10, true, d),
	)
	ctx := context.Background()

	sum, err := repo.SumPrice(ctx, domain.Filter{}.WithSold(true))
	if err != nil || sum != 1059 {
		t.Fatalf("sum = %v, %v; want 1059", sum, err)
	}

	hist, err := repo.PriceHistogram(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	want := []int64{2, 1, 0, 0, 0, 0, 0, 0, 0, 2}
	for i := range want {
		if hist[i] != want[i] {
			t.Fatalf("bucket %d = %d; want %d", i, hist[i], want[i])
		}
	}

	cats, err := repo.CountByCategory(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	got := map[string]int64{}
	for _, c := range cats {
		got[c.Category] = c.Count
	}
	if len(got) != 3 || got["A"] != 2 || got["B"] != 2 || got["C"] != 1 {
		t.Fatalf("unexpected categories %v", got)
	}
}

func TestMemoryRepository_NegativePriceIsRejected(t *testing.T) {
	repo := seeded(t, sample("refund", "A", -5, true, time.Now()))

	if _, err := repo.PriceHistogram(context.Background(), domain.Filter{}); !errors.Is(err, domain.ErrPriceOutOfRange) {
		t.Fatalf("expected ErrPriceOutOfRange, got %v", err)
	}
}

func TestMemoryRepository_SkipsKnownSourceIDs(t *testing.T) {
	id := int64(7)
	repo := NewMemoryTransactionRepository()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.InsertMany(ctx, []*domain.Transaction{
			{SourceID: &id, ProductTitle: "keyed"},
			{ProductTitle: "unkeyed"},
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, _ := repo.Count(ctx, domain.Filter{})
	if n != 3 {
		t.Fatalf("expected keyed record once and unkeyed twice, got %d", n)
	}
}

func TestMemoryRepository_MatchNone(t *testing.T) {
	repo := seeded(t, sample("a", "A", 1, true, time.Now()))
	n, _ := repo.Count(context.Background(), domain.Filter{MatchNone: true})
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
