package postgres

import (
	"context"
	"database/sql"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
)

type legRepository struct {
	db *sql.DB
}

func NewLegRepository(db *sql.DB) repository.LegRepository {
	return &legRepository{db: db}
}

func (r *legRepository) Create(ctx context.Context, leg *domain.SettlementLeg) error {
	logger.EnterMethod("legRepository.Create", "id", leg.ID)

	query := `INSERT INTO fx_settlement_legs (id, transaction_id, ordinal, settlement_type, currency, amount,
	              bank_account, status, notes, validation_flag, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		leg.ID, leg.TransactionID, leg.Ordinal, leg.SettlementType, leg.Currency, leg.Amount,
		leg.BankAccount, leg.Status, leg.Notes, leg.ValidationFlag, now,
	)
	if err != nil {
		logger.ExitMethodWithError("legRepository.Create", err, "id", leg.ID)
		return mapError(err)
	}
	leg.CreatedAt = now

	logger.ExitMethod("legRepository.Create", "id", leg.ID)
	return nil
}

func (r *legRepository) CountByTransaction(ctx context.Context, transactionID string) (int, error) {
	var count int
	query := `SELECT count(*) FROM fx_settlement_legs WHERE transaction_id = $1`
	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(&count)
	return count, err
}

func (r *legRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error) {
	query := `SELECT id, transaction_id, ordinal, settlement_type, currency, amount,
	                 bank_account, status, notes, validation_flag, created_at
	          FROM fx_settlement_legs WHERE transaction_id = $1 ORDER BY ordinal`
	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []domain.SettlementLeg
	for rows.Next() {
		var leg domain.SettlementLeg
		if err := rows.Scan(&leg.ID, &leg.TransactionID, &leg.Ordinal, &leg.SettlementType, &leg.Currency, &leg.Amount,
			&leg.BankAccount, &leg.Status, &leg.Notes, &leg.ValidationFlag, &leg.CreatedAt); err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *legRepository) UpdateValidationFlag(ctx context.Context, legID string, flag domain.ValidationFlag) error {
	query := `UPDATE fx_settlement_legs SET validation_flag = $1 WHERE id = $2`
	logger.StoreCall(backend, "UpdateValidationFlag", query, "legID", legID, "flag", flag)
	res, err := r.db.ExecContext(ctx, query, flag, legID)
	if err != nil {
		logger.StoreResult(backend, "UpdateValidationFlag", 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.StoreResult(backend, "UpdateValidationFlag", n, nil)
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
