package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"product_transactions/internal/domain"
	"product_transactions/internal/logger"
	"product_transactions/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
)

const maxSeedBody = 32 << 20

var (
	seedRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seed_runs_total",
			Help: "Seed attempts by outcome",
		},
		[]string{"outcome"},
	)
	seedInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "seed_inserted_documents_total",
			Help: "Documents inserted by the seed loader",
		},
	)
)

func init() {
	prometheus.MustRegister(seedRuns)
	prometheus.MustRegister(seedInserted)
}

// SeedResult describes one seed run
type SeedResult struct {
	Fetched  int   `json:"fetched"`
	Inserted int64 `json:"inserted"`
	Skipped  bool  `json:"skipped"`
}

// SeedNotifyFunc is called after a seed run inserted documents
type SeedNotifyFunc func(SeedResult)

// Seeder loads the remote dataset into the store
type Seeder struct {
	store      repository.TransactionStore
	url        string
	httpClient *http.Client
	reports    *ReportService

	// OnSeeded is optional
	OnSeeded SeedNotifyFunc

	mu sync.Mutex
}

func NewSeeder(store repository.TransactionStore, url string, reports *ReportService) *Seeder {
	return &Seeder{
		store:   store,
		url:     url,
		reports: reports,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Seed fetches the dataset and inserts it. Unless force is set, a store
// that already holds documents is left untouched. Runs are serialized
// within the process.
func (s *Seeder) Seed(ctx context.Context, force bool) (SeedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result SeedResult

	if !force {
		n, err := s.store.Count(ctx, domain.Filter{})
		if err != nil {
			seedRuns.WithLabelValues("error").Inc()
			return result, fmt.Errorf("count existing documents: %w", err)
		}
		if n > 0 {
			logger.Info("store already seeded, skipping", "documents", n)
			seedRuns.WithLabelValues("skipped").Inc()
			result.Skipped = true
			return result, nil
		}
	}

	txs, err := s.fetch(ctx)
	if err != nil {
		seedRuns.WithLabelValues("error").Inc()
		return result, err
	}
	result.Fetched = len(txs)

	inserted, err := s.store.InsertMany(ctx, txs)
	if err != nil {
		seedRuns.WithLabelValues("error").Inc()
		return result, fmt.Errorf("insert seed documents: %w", err)
	}
	result.Inserted = inserted
	seedInserted.Add(float64(inserted))
	seedRuns.WithLabelValues("ok").Inc()

	logger.Info("database initialized", "fetched", result.Fetched, "inserted", inserted)

	if inserted > 0 {
		if s.reports != nil {
			if err := s.reports.InvalidateCache(ctx); err != nil {
				logger.Warn("failed to invalidate report cache", "error", err)
			}
		}
		if s.OnSeeded != nil {
			s.OnSeeded(result)
		}
	}
	return result, nil
}

func (s *Seeder) fetch(ctx context.Context) ([]*domain.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch seed data: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return DecodeSeed(io.LimitReader(resp.Body, maxSeedBody))
}

// seedRecord accepts both the entity field names and the names used by
// the published dataset
type seedRecord struct {
	ID                 *int64   `json:"id"`
	ProductTitle       string   `json:"productTitle"`
	Title              string   `json:"title"`
	ProductDescription string   `json:"productDescription"`
	Description        string   `json:"description"`
	Price              *float64 `json:"price"`
	IsSold             *bool    `json:"isSold"`
	Sold               *bool    `json:"sold"`
	Category           string   `json:"category"`
	Image              string   `json:"image"`
	DateOfSale         string   `json:"dateOfSale"`
}

var saleDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseSaleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (r seedRecord) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		SourceID:           r.ID,
		ProductTitle:       firstNonEmpty(r.ProductTitle, r.Title),
		ProductDescription: firstNonEmpty(r.ProductDescription, r.Description),
		Category:           r.Category,
		Image:              r.Image,
	}
	if r.Price != nil {
		tx.Price = *r.Price
	}
	switch {
	case r.IsSold != nil:
		tx.IsSold = *r.IsSold
	case r.Sold != nil:
		tx.IsSold = *r.Sold
	}
	if r.DateOfSale != "" {
		d, err := parseSaleDate(r.DateOfSale)
		if err != nil {
			return nil, err
		}
		tx.DateOfSale = d
	}
	return tx, nil
}

// DecodeSeed reads a JSON array of transaction-shaped records. Records
// with an unparsable date are dropped with a warning.
func DecodeSeed(r io.Reader) ([]*domain.Transaction, error) {
	var records []seedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(records))
	for i, rec := range records {
		tx, err := rec.toDomain()
		if err != nil {
			logger.Warn("skipping seed record", "index", i, "error", err)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
