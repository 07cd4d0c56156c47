package postgres

import (
	"context"
	"database/sql"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
)

const inventoryColumns = `inv_date, currency, opening_balance, buys_total, sells_total,
	adjustments_total, closing_balance, updated_at`

type inventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

// Upsert overwrites the (date, currency) row.
func (r *inventoryRepository) Upsert(ctx context.Context, e *domain.DailyInventoryEntry) error {
	logger.EnterMethod("inventoryRepository.Upsert", "date", e.Date, "currency", e.Currency)

	query := `
		INSERT INTO fx_daily_inventory (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (inv_date, currency) DO UPDATE SET
			opening_balance = EXCLUDED.opening_balance,
			buys_total = EXCLUDED.buys_total,
			sells_total = EXCLUDED.sells_total,
			adjustments_total = EXCLUDED.adjustments_total,
			closing_balance = EXCLUDED.closing_balance,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		e.Date, e.Currency, e.OpeningBalance, e.BuysTotal, e.SellsTotal,
		e.AdjustmentsTotal, e.ClosingBalance, now,
	)
	if err != nil {
		logger.ExitMethodWithError("inventoryRepository.Upsert", err, "currency", e.Currency)
		return err
	}
	e.UpdatedAt = now

	logger.ExitMethod("inventoryRepository.Upsert", "date", e.Date, "currency", e.Currency)
	return nil
}

func (r *inventoryRepository) Get(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	query := `SELECT ` + inventoryColumns + ` FROM fx_daily_inventory WHERE inv_date = $1 AND currency = $2`
	e, err := scanInventory(r.db.QueryRowContext(ctx, query, date, currency))
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *inventoryRepository) GetLatestBefore(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	query := `SELECT ` + inventoryColumns + ` FROM fx_daily_inventory
	          WHERE inv_date < $1 AND currency = $2 ORDER BY inv_date DESC LIMIT 1`
	e, err := scanInventory(r.db.QueryRowContext(ctx, query, date, currency))
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *inventoryRepository) ListByCurrency(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error) {
	query := `SELECT ` + inventoryColumns + ` FROM fx_daily_inventory
	          WHERE currency = $1 AND inv_date >= $2 AND inv_date <= $3 ORDER BY inv_date`
	rows, err := r.db.QueryContext(ctx, query, currency, from, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.DailyInventoryEntry
	for rows.Next() {
		e, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanInventory(row rowScanner) (*domain.DailyInventoryEntry, error) {
	e := &domain.DailyInventoryEntry{}
	var date time.Time
	if err := row.Scan(&date, &e.Currency, &e.OpeningBalance, &e.BuysTotal, &e.SellsTotal,
		&e.AdjustmentsTotal, &e.ClosingBalance, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Date = dateOf(date)
	return e, nil
}
