package postgres

import (
	"context"
	"database/sql"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
)

type adjustmentRepository struct {
	db *sql.DB
}

func NewAdjustmentRepository(db *sql.DB) repository.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Create(ctx context.Context, adj *domain.Adjustment) error {
	logger.EnterMethod("adjustmentRepository.Create", "id", adj.ID, "currency", adj.Currency)

	query := `INSERT INTO fx_adjustments (id, adj_date, currency, amount, reason, staff, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, adj.ID, adj.Date, adj.Currency, adj.Amount, adj.Reason, adj.Staff, now)
	if err != nil {
		logger.ExitMethodWithError("adjustmentRepository.Create", err, "id", adj.ID)
		return mapError(err)
	}
	adj.CreatedAt = now

	logger.ExitMethod("adjustmentRepository.Create", "id", adj.ID)
	return nil
}

func (r *adjustmentRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Adjustment, error) {
	query := `SELECT id, adj_date, currency, amount, reason, staff, created_at
	          FROM fx_adjustments WHERE adj_date = $1 AND currency = $2 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, date, currency)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjs []domain.Adjustment
	for rows.Next() {
		var adj domain.Adjustment
		var d time.Time
		if err := rows.Scan(&adj.ID, &d, &adj.Currency, &adj.Amount, &adj.Reason, &adj.Staff, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adj.Date = dateOf(d)
		adjs = append(adjs, adj)
	}
	return adjs, rows.Err()
}

func (r *adjustmentRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	query := `SELECT DISTINCT adj_date FROM fx_adjustments
	          WHERE currency = $1 AND adj_date >= $2 AND adj_date <= $3 ORDER BY adj_date`
	rows, err := r.db.QueryContext(ctx, query, currency, from, through)
	if err != nil {
		return nil, err
	}
	return scanDates(rows)
}
