package postgres

import (
	"context"
	"database/sql"

	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/repository"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments the named counter in a single statement, so concurrent
// callers never observe the same value.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `INSERT INTO fx_sequences (name, value) VALUES ($1, 1)
	          ON CONFLICT (name) DO UPDATE SET value = fx_sequences.value + 1
	          RETURNING value`
	logger.StoreCall(backend, "NextSequence", query, "name", name)
	var value int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&value)
	logger.StoreResult(backend, "NextSequence", 1, err, "name", name)
	return value, err
}
