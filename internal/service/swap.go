package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/metrics"

	"github.com/google/uuid"
)

type swapService struct {
	ledger LedgerService
	alerts AlertService
	opts   Options
}

func NewSwapService(ledger LedgerService, alerts AlertService, opts Options) SwapService {
	return &swapService{ledger: ledger, alerts: alerts, opts: opts}
}

// ProcessSwap books a currency exchange as a Sell of the source currency
// followed by a Buy of the target currency. A side can be appended and then
// fail in a later step; every transaction the swap wrote is recorded on the
// receipt and, when compensation is enabled, cancelled. A SwapPartialFailure
// is returned whenever anything was written.
func (s *swapService) ProcessSwap(ctx context.Context, in domain.SwapInput) (receipt *SwapReceipt, err error) {
	logger.EnterMethod("swapService.ProcessSwap", "from", in.FromCurrency, "to", in.ToCurrency)
	start := time.Now()
	receipt = &SwapReceipt{Swap: domain.SwapUnit{State: domain.SwapStateInit}}
	defer func() {
		metrics.ObserveOperation("processSwap", metrics.Result(err), time.Since(start))
		metrics.IncSwapOutcome(string(receipt.Swap.State))
	}()

	sellIn, buyIn, err := s.sides(in)
	if err != nil {
		logger.ExitMethodWithError("swapService.ProcessSwap", err)
		return receipt, err
	}
	swap := &receipt.Swap
	swap.SwapID = uuid.NewString()
	sellIn.SwapID, buyIn.SwapID = swap.SwapID, swap.SwapID
	sellIn.Notes = joinNotes(in.Notes, fmt.Sprintf("Swap %s: sell side, buy %s %s follows",
		swap.SwapID, string(buyIn.Amount), buyIn.Currency))

	sell, err := s.ledger.CreateTransaction(ctx, sellIn)
	receipt.Sell = sell
	if err != nil {
		receipt.step("sell side failed: %v", err)
		if sell == nil || sell.TransactionID == "" {
			logger.ExitMethodWithError("swapService.ProcessSwap", err, "swapID", swap.SwapID)
			return receipt, err
		}
		swap.SellTransactionID = sell.TransactionID
		swap.State = domain.SwapStateSellFailed
		receipt.step("sell %s was recorded before the failure", sell.TransactionID)
		failure := s.compensate(ctx, receipt, domain.TransactionTypeSell, err)
		logger.ExitMethodWithError("swapService.ProcessSwap", failure, "swapID", swap.SwapID, "state", swap.State)
		return receipt, failure
	}
	swap.SellTransactionID = sell.TransactionID
	swap.State = domain.SwapStateSellPosted
	receipt.step("sell %s posted", sell.TransactionID)

	buyIn.Notes = joinNotes(in.Notes, fmt.Sprintf("Swap %s: buy side of sell %s", swap.SwapID, sell.TransactionID))
	buy, err := s.ledger.CreateTransaction(ctx, buyIn)
	receipt.Buy = buy
	if err != nil {
		swap.State = domain.SwapStateBuyFailed
		receipt.step("buy side failed: %v", err)
		if buy != nil && buy.TransactionID != "" {
			swap.BuyTransactionID = buy.TransactionID
			receipt.step("buy %s was recorded before the failure", buy.TransactionID)
		}
		failure := s.compensate(ctx, receipt, domain.TransactionTypeBuy, err)
		logger.ExitMethodWithError("swapService.ProcessSwap", failure, "swapID", swap.SwapID, "state", swap.State)
		return receipt, failure
	}
	swap.BuyTransactionID = buy.TransactionID
	swap.State = domain.SwapStateBuyPosted
	receipt.step("buy %s posted", buy.TransactionID)

	notes := joinNotes(in.Notes, fmt.Sprintf("Swap %s: sell side of buy %s", swap.SwapID, buy.TransactionID))
	if _, err := s.ledger.UpdateTransaction(ctx, sell.TransactionID, domain.TransactionPatch{Notes: &notes}); err != nil {
		logger.Warn("Failed to cross-reference swap sides", "swapID", swap.SwapID, "error", err)
	}

	logger.ExitMethod("swapService.ProcessSwap", "swapID", swap.SwapID, "sell", swap.SellTransactionID, "buy", swap.BuyTransactionID)
	return receipt, nil
}

// compensate cancels every transaction the swap recorded and builds the
// partial failure report. The swap is Compensated only if all cancels succeed.
func (s *swapService) compensate(ctx context.Context, receipt *SwapReceipt, failed domain.TransactionType, cause error) *domain.SwapPartialFailure {
	swap := &receipt.Swap
	failure := &domain.SwapPartialFailure{
		SwapID:            swap.SwapID,
		FailedSide:        failed,
		SellTransactionID: swap.SellTransactionID,
		BuyTransactionID:  swap.BuyTransactionID,
		Err:               cause,
	}

	if s.opts.CompensateSwaps {
		cancelled := string(domain.TransactionStatusCancelled)
		reason := fmt.Sprintf("cancelled: %s side failed: %v", strings.ToLower(string(failed)), cause)
		allCancelled := true
		for _, posted := range []*TransactionReceipt{receipt.Sell, receipt.Buy} {
			if posted == nil || posted.TransactionID == "" {
				continue
			}
			id := posted.TransactionID
			notes := joinNotes(s.notesOf(ctx, id), reason)
			_, err := s.ledger.UpdateTransaction(ctx, id, domain.TransactionPatch{
				Status: &cancelled,
				Notes:  &notes,
			})
			if err != nil {
				allCancelled = false
				receipt.step("compensation of %s failed: %v", id, err)
				logger.ErrorContext(ctx, "Swap compensation failed", "swapID", swap.SwapID, "transactionID", id, "error", err)
				continue
			}
			receipt.step("%s cancelled", id)
		}
		if allCancelled {
			swap.State = domain.SwapStateCompensated
			failure.Compensated = true
		}
	}

	if err := s.alerts.SendSwapFailureAlert(ctx, failure); err != nil {
		logger.Warn("Failed to send swap failure alert", "swapID", swap.SwapID, "error", err)
	}
	return failure
}

// notesOf returns the stored notes of id so cancellation appends to them.
func (s *swapService) notesOf(ctx context.Context, id string) string {
	tx, _, err := s.ledger.GetTransaction(ctx, id)
	if err != nil {
		return ""
	}
	return tx.Notes
}

// sides validates both halves of the swap before anything is written.
func (s *swapService) sides(in domain.SwapInput) (sell, buy domain.TransactionInput, err error) {
	sell = domain.TransactionInput{
		Date:     in.Date,
		Customer: in.Customer,
		Type:     string(domain.TransactionTypeSell),
		Currency: in.FromCurrency,
		Amount:   in.FromAmount,
		Rate:     in.SellRate,
		Nature:   "Swap",
		Source:   in.Source,
		Staff:    in.Staff,
		Legs: []domain.LegInput{{
			SettlementType: string(domain.SettlementTypeSwapOut),
			Currency:       in.FromCurrency,
			Amount:         in.FromAmount,
		}},
	}
	buy = domain.TransactionInput{
		Date:     in.Date,
		Customer: in.Customer,
		Type:     string(domain.TransactionTypeBuy),
		Currency: in.ToCurrency,
		Amount:   in.ToAmount,
		Rate:     in.BuyRate,
		Nature:   "Swap",
		Source:   in.Source,
		Staff:    in.Staff,
		Legs: []domain.LegInput{{
			SettlementType: string(domain.SettlementTypeSwapIn),
			Currency:       in.ToCurrency,
			Amount:         in.ToAmount,
		}},
	}

	sellTx, err := newTransaction(sell, s.opts)
	if err != nil {
		return sell, buy, prefixField("from", err)
	}
	buyTx, err := newTransaction(buy, s.opts)
	if err != nil {
		return sell, buy, prefixField("to", err)
	}
	if sellTx.Currency == buyTx.Currency {
		return sell, buy, domain.NewValidationError("to_currency", "must differ from from_currency")
	}
	return sell, buy, nil
}

func prefixField(side string, err error) error {
	if ve, ok := err.(*domain.ValidationError); ok && ve.Field != "" {
		return &domain.ValidationError{Field: side + "." + ve.Field, Reason: ve.Reason}
	}
	return err
}

func joinNotes(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
