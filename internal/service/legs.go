package service

import (
	"context"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/metrics"
	"fxdesk-ledger/internal/repository"
)

type legService struct {
	txRepo  repository.TransactionRepository
	legRepo repository.LegRepository
	opts    Options
	locks   *keyedMutex
}

func NewLegService(store *repository.Store, opts Options) LegService {
	return &legService{
		txRepo:  store.Transactions,
		legRepo: store.Legs,
		opts:    opts,
		locks:   newKeyedMutex(),
	}
}

// AddLeg appends the next leg of a transaction. Counting and appending happen
// under the transaction's lock so ordinals stay dense.
func (s *legService) AddLeg(ctx context.Context, transactionID string, in domain.LegInput) (leg *domain.SettlementLeg, err error) {
	logger.EnterMethod("legService.AddLeg", "transactionID", transactionID)
	start := time.Now()
	defer func() { metrics.ObserveOperation("addLeg", metrics.Result(err), time.Since(start)) }()

	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, lookupError("transaction", transactionID, err)
	}
	leg, err = newLeg(in, tx.Currency, s.opts)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	count, err := s.legRepo.CountByTransaction(ctx, transactionID)
	if err != nil {
		return nil, storeError("count legs", err)
	}
	leg.TransactionID = transactionID
	leg.Ordinal = count + 1
	leg.ID = domain.LegID(transactionID, leg.Ordinal)
	leg.ValidationFlag = domain.ValidationFlagUnset
	if err := s.legRepo.Create(ctx, leg); err != nil {
		logger.ExitMethodWithError("legService.AddLeg", err, "legID", leg.ID)
		return nil, storeError("append leg", err)
	}

	logger.ExitMethod("legService.AddLeg", "legID", leg.ID)
	return leg, nil
}

// ValidateLegs compares the legs in the transaction's own currency against its
// amount and flags each of them. A mismatch is reported, not returned as an error.
func (s *legService) ValidateLegs(ctx context.Context, transactionID string) (result *domain.LegValidation, err error) {
	logger.EnterMethod("legService.ValidateLegs", "transactionID", transactionID)
	start := time.Now()
	defer func() { metrics.ObserveOperation("validateLegs", metrics.Result(err), time.Since(start)) }()

	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, lookupError("transaction", transactionID, err)
	}

	unlock := s.locks.Lock(transactionID)
	defer unlock()

	legs, err := s.legRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, storeError("list legs", err)
	}

	result = &domain.LegValidation{TransactionID: transactionID, Expected: tx.Amount}
	var matching []domain.SettlementLeg
	for _, leg := range legs {
		if leg.Currency != tx.Currency {
			continue
		}
		matching = append(matching, leg)
		result.Sum = result.Sum.Add(leg.Amount)
	}
	result.LegsChecked = len(matching)
	result.Difference = result.Sum.Sub(tx.Amount)
	result.Valid = domain.WithinEpsilon(result.Sum, tx.Amount, s.opts.epsilon())

	flag := domain.ValidationFlagOK
	if !result.Valid {
		flag = domain.ValidationFlagMismatch
		metrics.IncLegMismatch(tx.Currency)
	}
	for _, leg := range matching {
		if err := s.legRepo.UpdateValidationFlag(ctx, leg.ID, flag); err != nil {
			logger.ExitMethodWithError("legService.ValidateLegs", err, "legID", leg.ID)
			return result, storeError("flag leg", err)
		}
	}

	logger.ExitMethod("legService.ValidateLegs", "transactionID", transactionID, "valid", result.Valid)
	return result, nil
}

func (s *legService) ListLegs(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error) {
	if _, err := s.txRepo.GetByID(ctx, transactionID); err != nil {
		return nil, lookupError("transaction", transactionID, err)
	}
	legs, err := s.legRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, storeError("list legs", err)
	}
	return legs, nil
}
