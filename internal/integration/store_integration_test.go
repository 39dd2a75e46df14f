package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"product_transactions/internal/db"
	"product_transactions/internal/domain"
	"product_transactions/internal/migrations"
	"product_transactions/internal/repository"
)

func fixtures(run int64) []*domain.Transaction {
	march := time.Date(2022, time.March, 10, 12, 0, 0, 0, time.UTC)
	id := func(n int64) *int64 { v := run*100 + n; return &v }
	return []*domain.Transaction{
		{SourceID: id(1), DateOfSale: march, ProductTitle: "Backpack", ProductDescription: "Fits 15 inch laptops", Price: 109.95, IsSold: true, Category: "men's clothing"},
		{SourceID: id(2), DateOfSale: march, ProductTitle: "Slim Fit T-Shirt", ProductDescription: "Casual", Price: 22.3, IsSold: false, Category: "men's clothing"},
		{SourceID: id(3), DateOfSale: march.AddDate(0, 1, 0), ProductTitle: "Gold ring", ProductDescription: "Jewelery", Price: 999, IsSold: true, Category: "jewelery"},
	}
}

// exerciseStore runs the same assertions against any backend; the store is
// expected to contain only the fixtures of this run under the given filter.
func exerciseStore(t *testing.T, store repository.TransactionStore, run int64) {
	t.Helper()
	ctx := context.Background()

	txs := fixtures(run)
	n, err := store.InsertMany(ctx, txs)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != int64(len(txs)) {
		t.Fatalf("inserted %d; want %d", n, len(txs))
	}

	again, err := store.InsertMany(ctx, fixtures(run))
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if again != 0 {
		t.Fatalf("re-insert of keyed records inserted %d; want 0", again)
	}

	from := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	march := domain.Filter{From: &from, To: &to, Location: time.UTC}.WithSearch("Backpack|Slim Fit")

	count, err := store.Count(ctx, march)
	if err != nil || count < 2 {
		t.Fatalf("count = %d, %v", count, err)
	}

	page, err := store.Find(ctx, march, 0, 1)
	if err != nil || len(page) != 1 {
		t.Fatalf("find = %d, %v", len(page), err)
	}

	if _, err := store.SumPrice(ctx, march.WithSold(true)); err != nil {
		t.Fatalf("sum: %v", err)
	}
	if _, err := store.PriceHistogram(ctx, march); err != nil {
		t.Fatalf("histogram: %v", err)
	}
	cats, err := store.CountByCategory(ctx, march)
	if err != nil || len(cats) == 0 {
		t.Fatalf("categories = %v, %v", cats, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pool, err := db.Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	store := repository.NewTransactionRepository(pool)
	defer store.Close()

	exerciseStore(t, store, time.Now().UnixNano()%1_000_000)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	store, err := repository.OpenStore(context.Background(), repository.StoreConfig{
		Backend:       repository.BackendMongo,
		MongoURI:      uri,
		MongoDatabase: "product_transactions_test",
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store, time.Now().UnixNano()%1_000_000)
}
