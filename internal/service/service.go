package service

import (
	"context"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"
)

type LedgerService interface {
	CreateTransaction(ctx context.Context, in domain.TransactionInput) (*TransactionReceipt, error)
	UpdateTransaction(ctx context.Context, id string, patch domain.TransactionPatch) (*TransactionReceipt, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, []domain.SettlementLeg, error)
}

type LegService interface {
	AddLeg(ctx context.Context, transactionID string, in domain.LegInput) (*domain.SettlementLeg, error)
	ValidateLegs(ctx context.Context, transactionID string) (*domain.LegValidation, error)
	ListLegs(ctx context.Context, transactionID string) ([]domain.SettlementLeg, error)
}

type InventoryService interface {
	Reconcile(ctx context.Context, date time.Time, currency string) (*domain.DailyInventoryEntry, error)
	// ReconcileForward reconciles every date with activity or an entry in
	// [from, through], oldest first. A zero through means no upper bound.
	ReconcileForward(ctx context.Context, from time.Time, currency string, through time.Time) ([]domain.DailyInventoryEntry, error)
	RecordAdjustment(ctx context.Context, in domain.AdjustmentInput) (*AdjustmentReceipt, error)
	GetInventory(ctx context.Context, currency string, from, through time.Time) ([]domain.DailyInventoryEntry, error)
}

type SwapService interface {
	ProcessSwap(ctx context.Context, in domain.SwapInput) (*SwapReceipt, error)
}

type AlertService interface {
	SendLegMismatchAlert(ctx context.Context, mismatch *domain.ReconciliationMismatch, currency string) error
	SendSwapFailureAlert(ctx context.Context, failure *domain.SwapPartialFailure) error
}

// TransactionReceipt reports what a ledger write did. It is returned
// alongside an error too, so the steps completed before a failure are visible.
type TransactionReceipt struct {
	TransactionID string                         `json:"transaction_id"`
	LegIDs        []string                       `json:"leg_ids,omitempty"`
	Reconciled    bool                           `json:"reconciled"`
	Mismatch      *domain.ReconciliationMismatch `json:"mismatch,omitempty"`
	Inventory     []domain.DailyInventoryEntry   `json:"inventory,omitempty"`
	Steps         []string                       `json:"steps"`
}

func (r *TransactionReceipt) step(format string, args ...any) {
	r.Steps = append(r.Steps, sprintf(format, args...))
}

type AdjustmentReceipt struct {
	Adjustment *domain.Adjustment           `json:"adjustment"`
	Inventory  *domain.DailyInventoryEntry  `json:"inventory,omitempty"`
	Cascaded   []domain.DailyInventoryEntry `json:"cascaded,omitempty"`
	Steps      []string                     `json:"steps"`
}

func (r *AdjustmentReceipt) step(format string, args ...any) {
	r.Steps = append(r.Steps, sprintf(format, args...))
}

type SwapReceipt struct {
	Swap  domain.SwapUnit     `json:"swap"`
	Sell  *TransactionReceipt `json:"sell,omitempty"`
	Buy   *TransactionReceipt `json:"buy,omitempty"`
	Steps []string            `json:"steps"`
}

func (r *SwapReceipt) step(format string, args ...any) {
	r.Steps = append(r.Steps, sprintf(format, args...))
}

// Services bundles the ledger components wired to one record store.
type Services struct {
	Ledger    LedgerService
	Legs      LegService
	Inventory InventoryService
	Swaps     SwapService
}

// New wires the ledger components. A nil alerts falls back to log-only alerts.
func New(store *repository.Store, opts Options, alerts AlertService) *Services {
	if alerts == nil {
		alerts = NewLogAlertService()
	}
	inventory := NewInventoryService(store, opts)
	legs := NewLegService(store, opts)
	ledger := NewLedgerService(store, legs, inventory, alerts, opts)
	return &Services{
		Ledger:    ledger,
		Legs:      legs,
		Inventory: inventory,
		Swaps:     NewSwapService(ledger, alerts, opts),
	}
}
