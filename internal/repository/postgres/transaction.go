package postgres

import (
	"context"
	"database/sql"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
)

const transactionColumns = `id, tx_date, customer, tx_type, currency, amount, rate, value_in_base,
	nature, source, staff, status, notes, swap_id, created_at, updated_at`

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "id", tx.ID)

	query := `INSERT INTO fx_transactions (` + transactionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.Date, tx.Customer, tx.Type, tx.Currency, tx.Amount, tx.Rate, tx.ValueInBase,
		tx.Nature, tx.Source, tx.Staff, tx.Status, tx.Notes, tx.SwapID, now, now,
	)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Create", err, "id", tx.ID)
		return mapError(err)
	}
	tx.CreatedAt, tx.UpdatedAt = now, now

	logger.ExitMethod("transactionRepository.Create", "id", tx.ID)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM fx_transactions WHERE id = $1`
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return tx, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Update", "id", tx.ID, "status", tx.Status)

	query := `
		UPDATE fx_transactions SET
			tx_date = $1, customer = $2, tx_type = $3, currency = $4, amount = $5, rate = $6,
			value_in_base = $7, nature = $8, source = $9, staff = $10, status = $11, notes = $12,
			updated_at = $13
		WHERE id = $14
	`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		tx.Date, tx.Customer, tx.Type, tx.Currency, tx.Amount, tx.Rate,
		tx.ValueInBase, tx.Nature, tx.Source, tx.Staff, tx.Status, tx.Notes,
		now, tx.ID,
	)
	if err != nil {
		logger.ExitMethodWithError("transactionRepository.Update", err, "id", tx.ID)
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	tx.UpdatedAt = now

	logger.ExitMethod("transactionRepository.Update", "id", tx.ID)
	return nil
}

func (r *transactionRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM fx_transactions
	          WHERE tx_date = $1 AND currency = $2 ORDER BY created_at, id`
	logger.StoreCall(backend, "ListTransactionsByDateAndCurrency", query, "date", date, "currency", currency)
	rows, err := r.db.QueryContext(ctx, query, date, currency)
	if err != nil {
		logger.StoreResult(backend, "ListTransactionsByDateAndCurrency", 0, err)
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	logger.StoreResult(backend, "ListTransactionsByDateAndCurrency", int64(len(txs)), rows.Err())
	return txs, rows.Err()
}

func (r *transactionRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	query := `SELECT DISTINCT tx_date FROM fx_transactions
	          WHERE currency = $1 AND tx_date >= $2 AND tx_date <= $3 ORDER BY tx_date`
	rows, err := r.db.QueryContext(ctx, query, currency, from, through)
	if err != nil {
		return nil, err
	}
	return scanDates(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	var date time.Time
	err := row.Scan(
		&tx.ID, &date, &tx.Customer, &tx.Type, &tx.Currency, &tx.Amount, &tx.Rate, &tx.ValueInBase,
		&tx.Nature, &tx.Source, &tx.Staff, &tx.Status, &tx.Notes, &tx.SwapID, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Date = dateOf(date)
	return tx, nil
}
