package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"

	"github.com/lib/pq"
)

const backend = "postgres"

// Schema creates the ledger tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS fx_transactions (
	id            TEXT PRIMARY KEY,
	tx_date       DATE NOT NULL,
	customer      TEXT NOT NULL,
	tx_type       TEXT NOT NULL,
	currency      TEXT NOT NULL,
	amount        NUMERIC(24, 6) NOT NULL CHECK (amount > 0),
	rate          NUMERIC(24, 8) NOT NULL CHECK (rate > 0),
	value_in_base NUMERIC(24, 2) NOT NULL,
	nature        TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	staff         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT '',
	swap_id       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS fx_transactions_currency_date ON fx_transactions (currency, tx_date);

CREATE TABLE IF NOT EXISTS fx_settlement_legs (
	id              TEXT PRIMARY KEY,
	transaction_id  TEXT NOT NULL REFERENCES fx_transactions (id),
	ordinal         INTEGER NOT NULL,
	settlement_type TEXT NOT NULL,
	currency        TEXT NOT NULL,
	amount          NUMERIC(24, 6) NOT NULL,
	bank_account    TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	validation_flag TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (transaction_id, ordinal)
);

CREATE TABLE IF NOT EXISTS fx_adjustments (
	id         TEXT PRIMARY KEY,
	adj_date   DATE NOT NULL,
	currency   TEXT NOT NULL,
	amount     NUMERIC(24, 6) NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	staff      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS fx_adjustments_currency_date ON fx_adjustments (currency, adj_date);

CREATE TABLE IF NOT EXISTS fx_daily_inventory (
	inv_date          DATE NOT NULL,
	currency          TEXT NOT NULL,
	opening_balance   NUMERIC(24, 6) NOT NULL,
	buys_total        NUMERIC(24, 6) NOT NULL,
	sells_total       NUMERIC(24, 6) NOT NULL,
	adjustments_total NUMERIC(24, 6) NOT NULL,
	closing_balance   NUMERIC(24, 6) NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (inv_date, currency)
);

CREATE TABLE IF NOT EXISTS fx_sequences (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

// NewStore wires every ledger repository to one database handle.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Transactions: NewTransactionRepository(db),
		Legs:         NewLegRepository(db),
		Adjustments:  NewAdjustmentRepository(db),
		Inventory:    NewInventoryRepository(db),
		Sequences:    NewSequenceRepository(db),
	}
}

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	logger.StoreCall(backend, "EnsureSchema", "")
	_, err := db.ExecContext(ctx, Schema)
	logger.StoreResult(backend, "EnsureSchema", 0, err)
	return err
}

// mapError turns driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return repository.ErrDuplicate
	}
	return err
}

// dateOf normalizes a scanned DATE column to a UTC business date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func scanDates(rows *sql.Rows) ([]time.Time, error) {
	defer rows.Close()
	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, dateOf(d))
	}
	return dates, rows.Err()
}
