package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"
)

// tables holds the append-ordered rows of every entity, guarded by one lock.
type tables struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	txIndex      map[string]int
	legs         []domain.SettlementLeg
	legIndex     map[string]int
	adjustments  []domain.Adjustment
	inventory    map[domain.InventoryKey]domain.DailyInventoryEntry
	sequences    map[string]int64
}

// NewStore constructs an empty in-memory record store.
func NewStore() *repository.Store {
	t := &tables{
		txIndex:   make(map[string]int),
		legIndex:  make(map[string]int),
		inventory: make(map[domain.InventoryKey]domain.DailyInventoryEntry),
		sequences: make(map[string]int64),
	}
	return &repository.Store{
		Transactions: &TransactionRepository{t: t},
		Legs:         &LegRepository{t: t},
		Adjustments:  &AdjustmentRepository{t: t},
		Inventory:    &InventoryRepository{t: t},
		Sequences:    &SequenceRepository{t: t},
	}
}

func inRange(d, from, through time.Time) bool {
	return !d.Before(from) && !d.After(through)
}

// TransactionRepository is the in-memory transaction table.
type TransactionRepository struct {
	t *tables
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, exists := r.t.txIndex[tx.ID]; exists {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	tx.CreatedAt, tx.UpdatedAt = now, now
	r.t.txIndex[tx.ID] = len(r.t.transactions)
	r.t.transactions = append(r.t.transactions, *tx)
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	i, ok := r.t.txIndex[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tx := r.t.transactions[i]
	return &tx, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	i, ok := r.t.txIndex[tx.ID]
	if !ok {
		return repository.ErrNotFound
	}
	tx.CreatedAt = r.t.transactions[i].CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	r.t.transactions[i] = *tx
	return nil
}

func (r *TransactionRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Transaction, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var out []domain.Transaction
	for _, tx := range r.t.transactions {
		if tx.Date.Equal(date) && tx.Currency == currency {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *TransactionRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var dates []time.Time
	for _, tx := range r.t.transactions {
		if tx.Currency == currency && inRange(tx.Date, from, through) {
			dates = append(dates, tx.Date)
		}
	}
	return repository.MergeDates(dates), nil
}

// LegRepository is the in-memory settlement leg table.
type LegRepository struct {
	t *tables
}

func (r *LegRepository) Create(ctx context.Context, leg *domain.SettlementLeg) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, exists := r.t.legIndex[leg.ID]; exists {
		return repository.ErrDuplicate
	}
	leg.CreatedAt = time.Now().UTC()
	r.t.legIndex[leg.ID] = len(r.t.legs)
	r.t.legs = append(r.t.legs, *leg)
	return nil
}

func (r *LegRepository) CountByTransaction(ctx context.Context, transactionID string) (int, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	count := 0
	for _, leg := range r.t.legs {
		if leg.TransactionID == transactionID {
			count++
		}
	}
	return count, nil
}

func (r *LegRepository) ListByTransaction(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var out []domain.SettlementLeg
	for _, leg := range r.t.legs {
		if leg.TransactionID == transactionID {
			out = append(out, leg)
		}
	}
	return out, nil
}

func (r *LegRepository) UpdateValidationFlag(ctx context.Context, legID string, flag domain.ValidationFlag) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	i, ok := r.t.legIndex[legID]
	if !ok {
		return repository.ErrNotFound
	}
	r.t.legs[i].ValidationFlag = flag
	return nil
}

// AdjustmentRepository is the in-memory adjustment table.
type AdjustmentRepository struct {
	t *tables
}

func (r *AdjustmentRepository) Create(ctx context.Context, adj *domain.Adjustment) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	adj.CreatedAt = time.Now().UTC()
	r.t.adjustments = append(r.t.adjustments, *adj)
	return nil
}

func (r *AdjustmentRepository) ListByDateAndCurrency(ctx context.Context, date time.Time, currency string) ([]domain.Adjustment, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var out []domain.Adjustment
	for _, adj := range r.t.adjustments {
		if adj.Date.Equal(date) && adj.Currency == currency {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (r *AdjustmentRepository) ListDates(ctx context.Context, currency string, from, through time.Time) ([]time.Time, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var dates []time.Time
	for _, adj := range r.t.adjustments {
		if adj.Currency == currency && inRange(adj.Date, from, through) {
			dates = append(dates, adj.Date)
		}
	}
	return repository.MergeDates(dates), nil
}

// InventoryRepository is the in-memory daily inventory table.
type InventoryRepository struct {
	t *tables
}

func (r *InventoryRepository) Upsert(ctx context.Context, entry *domain.DailyInventoryEntry) error {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	entry.UpdatedAt = time.Now().UTC()
	r.t.inventory[entry.Key()] = *entry
	return nil
}

func (r *InventoryRepository) Get(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	entry, ok := r.t.inventory[domain.InventoryKey{Date: date, Currency: currency}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entry, nil
}

func (r *InventoryRepository) GetLatestBefore(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var latest *domain.DailyInventoryEntry
	for key, entry := range r.t.inventory {
		if key.Currency != currency || !key.Date.Before(date) {
			continue
		}
		if latest == nil || key.Date.After(latest.Date) {
			e := entry
			latest = &e
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r *InventoryRepository) ListByCurrency(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error) {
	_ = ctx
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	var out []domain.DailyInventoryEntry
	for key, entry := range r.t.inventory {
		if key.Currency == currency && inRange(key.Date, from, through) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// SequenceRepository keeps per-entity counters.
type SequenceRepository struct {
	t *tables
}

func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	_ = ctx
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	r.t.sequences[name]++
	return r.t.sequences[name], nil
}
