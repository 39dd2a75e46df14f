package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"product_transactions/internal/domain"
	"product_transactions/internal/repository"
)

const seedJSON = `[
  {"id":1,"title":"Fjallraven Backpack","price":329.85,"description":"Your perfect pack","category":"men's clothing","image":"https://example.com/1.jpg","sold":false,"dateOfSale":"2021-11-27T20:29:54+05:30"},
  {"id":2,"title":"Mens Casual T-Shirt","price":22.3,"description":"Slim-fitting style","category":"men's clothing","sold":true,"dateOfSale":"2021-10-27T20:29:54+05:30"},
  {"productTitle":"Gold Bracelet","productDescription":"Jewelery","price":695,"category":"jewelery","isSold":true,"dateOfSale":"2022-03-01"}
]`

func seedServer(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestDecodeSeedAcceptsBothFieldSets(t *testing.T) {
	txs, err := DecodeSeed(strings.NewReader(seedJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(txs))
	}

	first := txs[0]
	if first.ProductTitle != "Fjallraven Backpack" || first.IsSold || first.SourceID == nil || *first.SourceID != 1 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if !first.DateOfSale.Equal(time.Date(2021, time.November, 27, 14, 59, 54, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", first.DateOfSale)
	}

	third := txs[2]
	if third.ProductTitle != "Gold Bracelet" || !third.IsSold || third.SourceID != nil {
		t.Fatalf("unexpected third record %+v", third)
	}
}

func TestDecodeSeedSkipsBadDates(t *testing.T) {
	txs, err := DecodeSeed(strings.NewReader(`[{"title":"a","dateOfSale":"yesterday"},{"title":"b"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 1 || txs[0].ProductTitle != "b" {
		t.Fatalf("unexpected records %+v", txs)
	}
}

func TestSeedIsGuardedByExistingDocuments(t *testing.T) {
	srv, hits := seedServer(t, seedJSON, http.StatusOK)
	store := repository.NewMemoryTransactionRepository()

	var notified []SeedResult
	seeder := NewSeeder(store, srv.URL, nil)
	seeder.OnSeeded = func(r SeedResult) { notified = append(notified, r) }

	ctx := context.Background()
	first, err := seeder.Seed(ctx, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first.Inserted != 3 || first.Skipped {
		t.Fatalf("unexpected first run %+v", first)
	}

	second, err := seeder.Seed(ctx, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !second.Skipped || second.Inserted != 0 {
		t.Fatalf("expected skipped second run, got %+v", second)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatalf("skipped run must not fetch, hits=%d", *hits)
	}

	n, _ := store.Count(ctx, domain.Filter{})
	if n != 3 {
		t.Fatalf("expected 3 documents, got %d", n)
	}
	if len(notified) != 1 {
		t.Fatalf("expected one notification, got %d", len(notified))
	}
}

func TestForcedSeedOnlyDuplicatesUnkeyedRecords(t *testing.T) {
	srv, _ := seedServer(t, seedJSON, http.StatusOK)
	store := repository.NewMemoryTransactionRepository()
	seeder := NewSeeder(store, srv.URL, nil)
	ctx := context.Background()

	if _, err := seeder.Seed(ctx, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, err := seeder.Seed(ctx, true)
	if err != nil {
		t.Fatalf("forced seed: %v", err)
	}
	if res.Fetched != 3 || res.Inserted != 1 {
		t.Fatalf("expected only the unkeyed record to be re-inserted, got %+v", res)
	}
}

func TestSeedFailureLeavesStoreUntouched(t *testing.T) {
	srv, _ := seedServer(t, "boom", http.StatusBadGateway)
	store := repository.NewMemoryTransactionRepository()
	seeder := NewSeeder(store, srv.URL, nil)

	if _, err := seeder.Seed(context.Background(), false); err == nil {
		t.Fatalf("expected error on bad status")
	}
	n, _ := store.Count(context.Background(), domain.Filter{})
	if n != 0 {
		t.Fatalf("expected empty store, got %d", n)
	}
}

func TestSeedInvalidatesReportCache(t *testing.T) {
	srv, _ := seedServer(t, seedJSON, http.StatusOK)
	store := repository.NewMemoryTransactionRepository()
	c := &countingCache{}
	reports := NewReportService(store, c, QueryOptions{})

	if _, err := NewSeeder(store, srv.URL, reports).Seed(context.Background(), false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if c.invalidations != 1 {
		t.Fatalf("expected one invalidation, got %d", c.invalidations)
	}
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (c *countingCache) Set(context.Context, string, string, any) error         { return nil }
func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}
