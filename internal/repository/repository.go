package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"fxdesk-ledger/internal/domain"
)

var (
	// ErrNotFound is returned by every backend when a keyed lookup has no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an append would reuse an existing identifier.
	ErrDuplicate = errors.New("duplicate record")
)

// Sequence names used with SequenceRepository.
const (
	SequenceTransaction = "transaction"
	SequenceAdjustment  = "adjustment"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Transaction, error)
	ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error)
}

type LegRepository interface {
	Create(ctx context.Context, leg *domain.SettlementLeg) error
	CountByTransaction(ctx context.Context, transactionID string) (int, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error)
	UpdateValidationFlag(ctx context.Context, legID string, flag domain.ValidationFlag) error
}

type AdjustmentRepository interface {
	Create(ctx context.Context, adj *domain.Adjustment) error
	ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Adjustment, error)
	ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error)
}

type InventoryRepository interface {
	Upsert(ctx context.Context, entry *domain.DailyInventoryEntry) error
	Get(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error)
	// GetLatestBefore returns the most recent entry strictly before date, or ErrNotFound.
	GetLatestBefore(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error)
	ListByCurrency(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error)
}

// SequenceRepository hands out per-entity counters. Next is atomic.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Store bundles the repositories a backend provides.
type Store struct {
	Transactions TransactionRepository
	Legs         LegRepository
	Adjustments  AdjustmentRepository
	Inventory    InventoryRepository
	Sequences    SequenceRepository
}

// MergeDates returns the sorted union of date lists without duplicates.
func MergeDates(lists ...[]time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, list := range lists {
		for _, d := range list {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
