package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CounterSaleRepository defines the interface for counter sale data access
type CounterSaleRepository interface {
	Upsert(ctx context.Context, sale *domain.CounterSale) error
	List(ctx context.Context, limit int) ([]*domain.CounterSale, error)
	SumForDate(ctx context.Context, date time.Time) (float64, error)
}

type counterSaleRepository struct {
	db *sql.DB
}

// NewCounterSaleRepository creates a new instance of CounterSaleRepository
func NewCounterSaleRepository(db *sql.DB) CounterSaleRepository {
	return &counterSaleRepository{db: db}
}

// Upsert records the day's counter total; recording the same sale_date
// again overwrites the existing row's amount and notes.
func (r *counterSaleRepository) Upsert(ctx context.Context, sale *domain.CounterSale) error {
	query := `
		INSERT INTO counter_sales (id, sale_date, amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sale_date)
		DO UPDATE SET amount = EXCLUDED.amount, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		uuid.New(),
		sale.SaleDate,
		sale.Amount,
		sale.Notes,
		time.Now(),
		time.Now(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert counter sale: %w", err)
	}

	return nil
}

// List retrieves recent counter sales, newest day first
func (r *counterSaleRepository) List(ctx context.Context, limit int) ([]*domain.CounterSale, error) {
	query := `
		SELECT id, sale_date, amount, notes, created_at, updated_at
		FROM counter_sales
		ORDER BY sale_date DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list counter sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.CounterSale{}
	for rows.Next() {
		sale := &domain.CounterSale{}
		err := rows.Scan(
			&sale.ID,
			&sale.SaleDate,
			&sale.Amount,
			&sale.Notes,
			&sale.CreatedAt,
			&sale.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counter sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counter sales: %w", err)
	}

	return sales, nil
}

// SumForDate returns the counter total recorded for a calendar day
func (r *counterSaleRepository) SumForDate(ctx context.Context, date time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM counter_sales
		WHERE sale_date = $1::date
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum counter sales: %w", err)
	}

	return total, nil
}
