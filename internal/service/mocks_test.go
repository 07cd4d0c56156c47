package service_test

import (
	"context"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockTransactionRepo intercepts writes and delegates everything else, and
// every accepted write, to a real repository.
type MockTransactionRepo struct {
	mock.Mock
	repository.TransactionRepository
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.TransactionRepository.Create(ctx, tx)
}

func (m *MockTransactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.TransactionRepository.Update(ctx, tx)
}

// MockLegRepo intercepts leg appends the same way.
type MockLegRepo struct {
	mock.Mock
	repository.LegRepository
}

func (m *MockLegRepo) Create(ctx context.Context, leg *domain.SettlementLeg) error {
	args := m.Called(ctx, leg)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.LegRepository.Create(ctx, leg)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) SendLegMismatchAlert(ctx context.Context, mismatch *domain.ReconciliationMismatch, currency string) error {
	args := m.Called(ctx, mismatch, currency)
	return args.Error(0)
}

func (m *MockAlertService) SendSwapFailureAlert(ctx context.Context, failure *domain.SwapPartialFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}
