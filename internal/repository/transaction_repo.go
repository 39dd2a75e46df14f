package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"product_transactions/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository stores transactions in the product_transactions table
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, source_id, date_of_sale, product_title, product_description,
		price, is_sold, category, image`

// whereClause renders f as a SQL condition with positional arguments
func whereClause(f domain.Filter) (string, []any) {
	if f.MatchNone {
		return "FALSE", nil
	}

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.From != nil {
		conds = append(conds, "date_of_sale >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "date_of_sale < "+arg(*f.To))
	}
	if f.MonthOfYear != 0 {
		conds = append(conds, fmt.Sprintf("EXTRACT(MONTH FROM date_of_sale AT TIME ZONE %s) = %s",
			arg(f.Loc().String()), arg(int(f.MonthOfYear))))
	}
	if f.Sold != nil {
		conds = append(conds, "is_sold = "+arg(*f.Sold))
	}
	if f.SearchPattern != "" {
		p := arg(f.SearchPattern)
		conds = append(conds, fmt.Sprintf("(product_title ~* %s OR product_description ~* %s OR price::text ~* %s)", p, p, p))
	}

	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

// Find returns a page of matching transactions in insertion order
func (r *TransactionRepository) Find(ctx context.Context, f domain.Filter, skip, limit int64) ([]*domain.Transaction, error) {
	where, args := whereClause(f)
	args = append(args, skip, limit)

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s
		 FROM product_transactions
		 WHERE %s
		 ORDER BY id
		 OFFSET $%d LIMIT $%d`, transactionColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *TransactionRepository) Count(ctx context.Context, f domain.Filter) (int64, error) {
	where, args := whereClause(f)

	var n int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM product_transactions WHERE "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) SumPrice(ctx context.Context, f domain.Filter) (float64, error) {
	where, args := whereClause(f)

	var sum float64
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(price), 0) FROM product_transactions WHERE "+where, args...,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum prices: %w", err)
	}
	return sum, nil
}

// PriceHistogram relies on width_bucket: 0 is below the first boundary,
// i is the bucket opened by boundary i-1.
func (r *TransactionRepository) PriceHistogram(ctx context.Context, f domain.Filter) ([]int64, error) {
	where, args := whereClause(f)
	args = append(args, domain.PriceBoundaries)

	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT width_bucket(price, $%d::float8[]) AS bucket, COUNT(*)
		 FROM product_transactions
		 WHERE %s
		 GROUP BY bucket`, len(args), where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("price histogram: %w", err)
	}
	defer rows.Close()

	counts := make([]int64, len(domain.PriceBoundaries))
	for rows.Next() {
		var bucket int
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, err
		}
		if bucket < 1 || bucket > len(counts) {
			return nil, fmt.Errorf("%w: %d transactions", domain.ErrPriceOutOfRange, n)
		}
		counts[bucket-1] = n
	}
	return counts, rows.Err()
}

func (r *TransactionRepository) CountByCategory(ctx context.Context, f domain.Filter) ([]*domain.CategoryCount, error) {
	where, args := whereClause(f)

	rows, err := r.db.Query(ctx,
		`SELECT category, COUNT(*)
		 FROM product_transactions
		 WHERE `+where+`
		 GROUP BY category
		 ORDER BY category`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.CategoryCount, 0)
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		result = append(result, &cc)
	}
	return result, rows.Err()
}

// InsertMany inserts in one database transaction. Rows whose source_id is
// already present are skipped.
func (r *TransactionRepository) InsertMany(ctx context.Context, txs []*domain.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer dbTx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(
			`INSERT INTO product_transactions
				(source_id, date_of_sale, product_title, product_description, price, is_sold, category, image)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (source_id) DO NOTHING
			 RETURNING id`,
			tx.SourceID, tx.DateOfSale, tx.ProductTitle, tx.ProductDescription,
			tx.Price, tx.IsSold, tx.Category, tx.Image,
		)
	}

	br := dbTx.SendBatch(ctx, batch)
	var inserted int64
	for _, tx := range txs {
		var id int64
		err := br.QueryRow().Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
		tx.ID = strconv.FormatInt(id, 10)
		inserted++
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *TransactionRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *TransactionRepository) Close() {
	r.db.Close()
}

// Helper to scan rows into Transaction slice
func (r *TransactionRepository) scanRows(rows pgx.Rows) ([]*domain.Transaction, error) {
	result := make([]*domain.Transaction, 0)

	for rows.Next() {
		var (
			tx domain.Transaction
			id int64
		)

		if err := rows.Scan(&id, &tx.SourceID, &tx.DateOfSale, &tx.ProductTitle, &tx.ProductDescription,
			&tx.Price, &tx.IsSold, &tx.Category, &tx.Image); err != nil {
			return nil, err
		}

		tx.ID = strconv.FormatInt(id, 10)
		result = append(result, &tx)
	}

	return result, rows.Err()
}
