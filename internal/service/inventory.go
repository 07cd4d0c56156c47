package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/metrics"
	"fxdesk-ledger/internal/repository"
	"fxdesk-ledger/internal/utils"

	"github.com/shopspring/decimal"
)

// openEnded stands in for a missing upper date bound.
var openEnded = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

type inventoryService struct {
	txRepo    repository.TransactionRepository
	adjRepo   repository.AdjustmentRepository
	invRepo   repository.InventoryRepository
	sequences repository.SequenceRepository
	opts      Options

	mu    sync.Mutex // adjustment id assignment
	locks *keyedMutex
}

func NewInventoryService(store *repository.Store, opts Options) InventoryService {
	return &inventoryService{
		txRepo:    store.Transactions,
		adjRepo:   store.Adjustments,
		invRepo:   store.Inventory,
		sequences: store.Sequences,
		opts:      opts,
		locks:     newKeyedMutex(),
	}
}

// Reconcile recomputes one day of one currency from the transactions and
// adjustments on that day and the latest earlier closing balance. Running it
// twice without intervening writes leaves the entry unchanged. Later days are
// not touched.
func (s *inventoryService) Reconcile(ctx context.Context, date time.Time, currency string) (entry *domain.DailyInventoryEntry, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("reconcile", metrics.Result(err), time.Since(start)) }()

	currency, err = s.opts.currency(currency)
	if err != nil {
		return nil, err
	}
	key := domain.InventoryKey{Date: utils.DateOf(date), Currency: currency}
	logger.EnterMethod("inventoryService.Reconcile", "key", key.String())

	unlock := s.locks.Lock(key.String())
	defer unlock()

	entry, err = s.compute(ctx, key)
	if err != nil {
		logger.ExitMethodWithError("inventoryService.Reconcile", err, "key", key.String())
		return nil, err
	}
	log := logger.WithInventoryKey(utils.FormatDate(key.Date), key.Currency)

	existing, err := s.invRepo.Get(ctx, key.Date, key.Currency)
	switch {
	case err == nil && existing.SameBalances(entry):
		logger.BalanceChange(log, existing.OpeningBalance.String(), existing.ClosingBalance.String(), false)
		logger.ExitMethod("inventoryService.Reconcile", "key", key.String(), "changed", false)
		return existing, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, storeError("get inventory", err)
	}

	if err := s.invRepo.Upsert(ctx, entry); err != nil {
		logger.ExitMethodWithError("inventoryService.Reconcile", err, "key", key.String())
		return nil, storeError("upsert inventory", err)
	}
	logger.BalanceChange(log, entry.OpeningBalance.String(), entry.ClosingBalance.String(), true)
	s.publishClosing(ctx, entry)

	logger.ExitMethod("inventoryService.Reconcile", "key", key.String(), "closing", entry.ClosingBalance.String())
	return entry, nil
}

// publishClosing moves the closing balance gauge only when entry is the
// newest day recorded for its currency.
func (s *inventoryService) publishClosing(ctx context.Context, entry *domain.DailyInventoryEntry) {
	later, err := s.invRepo.ListByCurrency(ctx, entry.Currency, entry.Date.AddDate(0, 0, 1), openEnded)
	if err != nil {
		logger.Warn("Failed to check for later inventory", "currency", entry.Currency, "error", err)
		return
	}
	if len(later) == 0 {
		metrics.SetClosingBalance(entry.Currency, entry.ClosingBalance.InexactFloat64())
	}
}

func (s *inventoryService) compute(ctx context.Context, key domain.InventoryKey) (*domain.DailyInventoryEntry, error) {
	entry := &domain.DailyInventoryEntry{
		Date:             key.Date,
		Currency:         key.Currency,
		OpeningBalance:   decimal.Zero,
		BuysTotal:        decimal.Zero,
		SellsTotal:       decimal.Zero,
		AdjustmentsTotal: decimal.Zero,
	}

	prev, err := s.invRepo.GetLatestBefore(ctx, key.Date, key.Currency)
	switch {
	case err == nil:
		entry.OpeningBalance = prev.ClosingBalance
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeError("get previous inventory", err)
	}

	txs, err := s.txRepo.ListByDateAndCurrency(ctx, key.Date, key.Currency)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	for _, tx := range txs {
		if tx.Status != domain.TransactionStatusComplete {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeBuy:
			entry.BuysTotal = entry.BuysTotal.Add(tx.Amount)
		case domain.TransactionTypeSell:
			entry.SellsTotal = entry.SellsTotal.Add(tx.Amount)
		}
	}

	adjs, err := s.adjRepo.ListByDateAndCurrency(ctx, key.Date, key.Currency)
	if err != nil {
		return nil, storeError("list adjustments", err)
	}
	for _, adj := range adjs {
		entry.AdjustmentsTotal = entry.AdjustmentsTotal.Add(adj.Amount)
	}

	entry.ClosingBalance = entry.OpeningBalance.Add(entry.Net())
	return entry, nil
}

func (s *inventoryService) ReconcileForward(ctx context.Context, from time.Time, currency string, through time.Time) ([]domain.DailyInventoryEntry, error) {
	currency, err := s.opts.currency(currency)
	if err != nil {
		return nil, err
	}
	from = utils.DateOf(from)
	if through.IsZero() {
		through = openEnded
	}
	through = utils.DateOf(through)
	if through.Before(from) {
		return nil, domain.NewValidationError("through", "must not be before %s", utils.FormatDate(from))
	}
	logger.EnterMethod("inventoryService.ReconcileForward", "from", utils.FormatDate(from), "currency", currency)

	txDates, err := s.txRepo.ListDates(ctx, currency, from, through)
	if err != nil {
		return nil, storeError("list transaction dates", err)
	}
	adjDates, err := s.adjRepo.ListDates(ctx, currency, from, through)
	if err != nil {
		return nil, storeError("list adjustment dates", err)
	}
	existing, err := s.invRepo.ListByCurrency(ctx, currency, from, through)
	if err != nil {
		return nil, storeError("list inventory", err)
	}
	entryDates := make([]time.Time, 0, len(existing))
	for _, e := range existing {
		entryDates = append(entryDates, e.Date)
	}

	var out []domain.DailyInventoryEntry
	for _, d := range repository.MergeDates(txDates, adjDates, entryDates) {
		entry, err := s.Reconcile(ctx, d, currency)
		if err != nil {
			logger.ExitMethodWithError("inventoryService.ReconcileForward", err, "date", utils.FormatDate(d))
			return out, err
		}
		out = append(out, *entry)
	}

	logger.ExitMethod("inventoryService.ReconcileForward", "currency", currency, "days", len(out))
	return out, nil
}

// RecordAdjustment stores a manual correction and always reconciles its day,
// whatever the auto-update setting.
func (s *inventoryService) RecordAdjustment(ctx context.Context, in domain.AdjustmentInput) (receipt *AdjustmentReceipt, err error) {
	logger.EnterMethod("inventoryService.RecordAdjustment", "currency", in.Currency, "date", in.Date)
	start := time.Now()
	defer func() { metrics.ObserveOperation("recordAdjustment", metrics.Result(err), time.Since(start)) }()

	adj := &domain.Adjustment{Reason: in.Reason, Staff: in.Staff}
	if adj.Date, err = parseDate("date", in.Date); err != nil {
		return nil, err
	}
	if adj.Currency, err = s.opts.currency(in.Currency); err != nil {
		return nil, err
	}
	if adj.Amount, err = nonZero("amount", in.Amount); err != nil {
		return nil, err
	}

	receipt = &AdjustmentReceipt{Adjustment: adj}

	s.mu.Lock()
	seq, err := s.sequences.Next(ctx, repository.SequenceAdjustment)
	if err == nil {
		adj.ID = fmt.Sprintf("%s%04d", adjustmentIDPrefix, seq)
		err = s.adjRepo.Create(ctx, adj)
	}
	s.mu.Unlock()
	if err != nil {
		logger.ExitMethodWithError("inventoryService.RecordAdjustment", err)
		return receipt, storeError("append adjustment", err)
	}
	receipt.step("adjustment %s recorded: %s %s", adj.ID, adj.Amount.String(), adj.Currency)

	entry, err := s.Reconcile(ctx, adj.Date, adj.Currency)
	if err != nil {
		return receipt, err
	}
	receipt.Inventory = entry
	receipt.step("inventory %s reconciled: closing %s", entry.Key(), entry.ClosingBalance.String())

	if s.opts.CascadeOnWrite {
		cascaded, err := s.ReconcileForward(ctx, adj.Date.AddDate(0, 0, 1), adj.Currency, time.Time{})
		receipt.Cascaded = cascaded
		if err != nil {
			return receipt, err
		}
		receipt.step("cascaded %d later day(s)", len(cascaded))
	}

	logger.ExitMethod("inventoryService.RecordAdjustment", "id", adj.ID)
	return receipt, nil
}

func (s *inventoryService) GetInventory(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error) {
	currency, err := s.opts.currency(currency)
	if err != nil {
		return nil, err
	}
	if through.IsZero() {
		through = openEnded
	}
	entries, err := s.invRepo.ListByCurrency(ctx, currency, utils.DateOf(from), utils.DateOf(through))
	if err != nil {
		return nil, storeError("list inventory", err)
	}
	return entries, nil
}
