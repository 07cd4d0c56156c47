package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/metrics"
	"fxdesk-ledger/internal/repository"
	"fxdesk-ledger/internal/utils"
)

type ledgerService struct {
	txRepo    repository.TransactionRepository
	sequences repository.SequenceRepository
	legs      LegService
	inventory InventoryService
	alerts    AlertService
	opts      Options

	mu      sync.Mutex // sequence + append
	txLocks *keyedMutex
}

func NewLedgerService(
	store *repository.Store,
	legs LegService,
	inventory InventoryService,
	alerts AlertService,
	opts Options,
) LedgerService {
	return &ledgerService{
		txRepo:    store.Transactions,
		sequences: store.Sequences,
		legs:      legs,
		inventory: inventory,
		alerts:    alerts,
		opts:      opts,
		txLocks:   newKeyedMutex(),
	}
}

func (s *ledgerService) CreateTransaction(ctx context.Context, in domain.TransactionInput) (receipt *TransactionReceipt, err error) {
	logger.EnterMethod("ledgerService.CreateTransaction", "type", in.Type, "currency", in.Currency)
	start := time.Now()
	defer func() { metrics.ObserveOperation("createTransaction", metrics.Result(err), time.Since(start)) }()

	tx, err := newTransaction(in, s.opts)
	if err != nil {
		logger.ExitMethodWithError("ledgerService.CreateTransaction", err)
		return nil, err
	}

	receipt = &TransactionReceipt{}
	if err := s.append(ctx, tx); err != nil {
		logger.ExitMethodWithError("ledgerService.CreateTransaction", err)
		return receipt, err
	}
	receipt.TransactionID = tx.ID
	receipt.step("transaction %s recorded: %s %s %s at %s", tx.ID, tx.Type, tx.Amount.String(), tx.Currency, tx.Rate.String())

	legs := in.Legs
	if len(legs) == 0 {
		legs = []domain.LegInput{{
			SettlementType: string(domain.DefaultSettlementType(tx.Type)),
			Currency:       tx.Currency,
			Amount:         domain.NumericText(tx.Amount.String()),
		}}
	}
	for _, legIn := range legs {
		leg, err := s.legs.AddLeg(ctx, tx.ID, legIn)
		if err != nil {
			logger.ExitMethodWithError("ledgerService.CreateTransaction", err, "id", tx.ID)
			return receipt, err
		}
		receipt.LegIDs = append(receipt.LegIDs, leg.ID)
		receipt.step("leg %s recorded: %s %s %s", leg.ID, leg.SettlementType, leg.Amount.String(), leg.Currency)
	}

	validation, err := s.legs.ValidateLegs(ctx, tx.ID)
	if err != nil {
		return receipt, err
	}
	receipt.Reconciled = validation.Valid
	if mismatch := validation.Mismatch(); mismatch != nil {
		receipt.Mismatch = mismatch
		receipt.step("legs mismatch: %s", mismatch)
		logger.WarnContext(ctx, "Settlement legs do not match transaction amount",
			"transactionID", tx.ID, "expected", mismatch.Expected.String(), "actual", mismatch.Actual.String())
		if err := s.alerts.SendLegMismatchAlert(ctx, mismatch, tx.Currency); err != nil {
			logger.Warn("Failed to send leg mismatch alert", "transactionID", tx.ID, "error", err)
		}
	} else {
		receipt.step("legs validated: %d leg(s) sum to %s", validation.LegsChecked, validation.Sum.String())
	}

	if s.opts.AutoUpdateInventory {
		if err := s.reconcile(ctx, receipt, tx.InventoryKey()); err != nil {
			return receipt, err
		}
	}

	logger.ExitMethod("ledgerService.CreateTransaction", "id", tx.ID, "reconciled", receipt.Reconciled)
	return receipt, nil
}

// append assigns the next identifier and stores tx. Both happen under one lock
// so identifiers are unique and issued in order.
func (s *ledgerService) append(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.sequences.Next(ctx, repository.SequenceTransaction)
	if err != nil {
		return storeError("next transaction id", err)
	}
	tx.ID = fmt.Sprintf("%s%04d", s.opts.TransactionIDPrefix, seq)
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return storeError("append transaction", err)
	}
	return nil
}

// reconcile brings one inventory key up to date, cascading to later days
// when configured.
func (s *ledgerService) reconcile(ctx context.Context, receipt *TransactionReceipt, key domain.InventoryKey) error {
	entry, err := s.inventory.Reconcile(ctx, key.Date, key.Currency)
	if err != nil {
		return err
	}
	receipt.Inventory = append(receipt.Inventory, *entry)
	receipt.step("inventory %s reconciled: closing %s", key, entry.ClosingBalance.String())

	if !s.opts.CascadeOnWrite {
		return nil
	}
	cascaded, err := s.inventory.ReconcileForward(ctx, key.Date.AddDate(0, 0, 1), key.Currency, time.Time{})
	receipt.Inventory = append(receipt.Inventory, cascaded...)
	if err != nil {
		return err
	}
	if len(cascaded) > 0 {
		receipt.step("cascaded %d later day(s) of %s", len(cascaded), key.Currency)
	}
	return nil
}

func (s *ledgerService) UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) (receipt *TransactionReceipt, err error) {
	logger.EnterMethod("ledgerService.UpdateTransaction", "id", id)
	start := time.Now()
	defer func() { metrics.ObserveOperation("updateTransaction", metrics.Result(err), time.Since(start)) }()

	if patch.IsEmpty() {
		return nil, domain.NewValidationError("", "update contains no fields")
	}

	unlock := s.txLocks.Lock(id)
	defer unlock()

	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("transaction", id, err)
	}
	before := *tx
	if err := applyPatch(tx, patch, s.opts); err != nil {
		return nil, err
	}

	receipt = &TransactionReceipt{TransactionID: id}
	if err := s.txRepo.Update(ctx, tx); err != nil {
		logger.ExitMethodWithError("ledgerService.UpdateTransaction", err, "id", id)
		return receipt, lookupError("transaction", id, err)
	}
	receipt.step("transaction %s updated", id)

	if s.opts.AutoUpdateInventory {
		oldKey, newKey := before.InventoryKey(), tx.InventoryKey()
		switch {
		case !oldKey.Date.Equal(newKey.Date) || oldKey.Currency != newKey.Currency:
			if err := s.reconcile(ctx, receipt, oldKey); err != nil {
				return receipt, err
			}
			if err := s.reconcile(ctx, receipt, newKey); err != nil {
				return receipt, err
			}
		case !before.Amount.Equal(tx.Amount) || before.Type != tx.Type || before.Status != tx.Status:
			if err := s.reconcile(ctx, receipt, newKey); err != nil {
				return receipt, err
			}
		}
	}

	logger.ExitMethod("ledgerService.UpdateTransaction", "id", id, "date", utils.FormatDate(tx.Date))
	return receipt, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, []domain.SettlementLeg, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError("transaction", id, err)
	}
	legs, err := s.legs.ListLegs(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return tx, legs, nil
}
