package service

import (
	"context"
	"fmt"
	"time"

	"product_transactions/internal/cache"
	"product_transactions/internal/domain"
	"product_transactions/internal/logger"
	"product_transactions/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Report kinds, also used as cache namespaces
const (
	ReportStatistics = "statistics"
	ReportBarChart   = "bar-chart"
	ReportPieChart   = "pie-chart"
)

// ReportService computes the month reports: statistics, price histogram
// and category breakdown
type ReportService struct {
	store repository.TransactionStore
	cache cache.ReportCache
	mode  domain.FilterMode
	loc   *time.Location
	now   func() time.Time
}

func NewReportService(store repository.TransactionStore, reportCache cache.ReportCache, opts QueryOptions) *ReportService {
	if reportCache == nil {
		reportCache = cache.NoopCache{}
	}
	if opts.Mode == "" {
		opts.Mode = domain.FilterModeStrict
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &ReportService{
		store: store,
		cache: reportCache,
		mode:  opts.Mode,
		loc:   opts.Location,
		now:   time.Now,
	}
}

func (s *ReportService) filter(p domain.FilterParams) domain.Filter {
	return domain.BuildReportFilter(p, s.mode, s.now(), s.loc)
}

// cached serves kind/f from the cache or computes and stores it. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, c cache.ReportCache, kind string, f domain.Filter, compute func() (T, error)) (T, error) {
	var out T
	hit, err := c.Get(ctx, kind, f.Key(), &out)
	if err != nil {
		logger.Warn("report cache read failed", "kind", kind, "error", err)
	}
	if hit {
		return out, nil
	}

	out, err = compute()
	if err != nil {
		return out, err
	}

	if err := c.Set(ctx, kind, f.Key(), out); err != nil {
		logger.Warn("report cache write failed", "kind", kind, "error", err)
	}
	return out, nil
}

// Statistics sums prices and counts sold and unsold transactions under the
// same filter
func (s *ReportService) Statistics(ctx context.Context, p domain.FilterParams) (*domain.Statistics, error) {
	f := s.filter(p)
	return cached(ctx, s.cache, ReportStatistics, f, func() (*domain.Statistics, error) {
		return s.statistics(ctx, f)
	})
}

func (s *ReportService) statistics(ctx context.Context, f domain.Filter) (*domain.Statistics, error) {
	var stats domain.Statistics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.store.SumPrice(gctx, f)
		stats.TotalSaleAmount = sum
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, f.WithSold(true))
		stats.TotalSoldItems = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, f.WithSold(false))
		stats.TotalNotSoldItems = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return &stats, nil
}

// BarChart buckets matching transactions by price. Every bucket is
// reported, empty ones with a zero count.
func (s *ReportService) BarChart(ctx context.Context, p domain.FilterParams) ([]domain.PriceBucket, error) {
	f := s.filter(p)
	return cached(ctx, s.cache, ReportBarChart, f, func() ([]domain.PriceBucket, error) {
		return s.barChart(ctx, f)
	})
}

func (s *ReportService) barChart(ctx context.Context, f domain.Filter) ([]domain.PriceBucket, error) {
	counts, err := s.store.PriceHistogram(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	return domain.NewBarChart(counts), nil
}

// PieChart counts matching transactions per category
func (s *ReportService) PieChart(ctx context.Context, p domain.FilterParams) ([]*domain.CategoryCount, error) {
	f := s.filter(p)
	return cached(ctx, s.cache, ReportPieChart, f, func() ([]*domain.CategoryCount, error) {
		return s.pieChart(ctx, f)
	})
}

func (s *ReportService) pieChart(ctx context.Context, f domain.Filter) ([]*domain.CategoryCount, error) {
	cats, err := s.store.CountByCategory(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("pie chart: %w", err)
	}
	return cats, nil
}

// Combined computes all three reports concurrently
func (s *ReportService) Combined(ctx context.Context, p domain.FilterParams) (*domain.CombinedReport, error) {
	var report domain.CombinedReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Statistics(gctx, p)
		report.Statistics = stats
		return err
	})
	g.Go(func() error {
		bars, err := s.BarChart(gctx, p)
		report.BarChart = bars
		return err
	})
	g.Go(func() error {
		pie, err := s.PieChart(gctx, p)
		report.PieChart = pie
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &report, nil
}

// InvalidateCache drops every cached report
func (s *ReportService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
