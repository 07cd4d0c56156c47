package service

import (
	"strings"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/utils"

	"github.com/shopspring/decimal"
)

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.NewValidationError(field, "is required")
	}
	return value, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := utils.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return d, domain.NewValidationError(field, "%v", err)
	}
	return d, nil
}

func positive(field string, value domain.NumericText) (decimal.Decimal, error) {
	d, err := value.Decimal()
	if err != nil {
		return d, domain.NewValidationError(field, "%q is not a number", string(value))
	}
	if !d.IsPositive() {
		return d, domain.NewValidationError(field, "must be greater than zero")
	}
	return d, nil
}

func nonZero(field string, value domain.NumericText) (decimal.Decimal, error) {
	d, err := value.Decimal()
	if err != nil {
		return d, domain.NewValidationError(field, "%q is not a number", string(value))
	}
	if d.IsZero() {
		return d, domain.NewValidationError(field, "must not be zero")
	}
	return d, nil
}

// newTransaction validates in and builds the unsaved transaction it describes.
func newTransaction(in domain.TransactionInput, opts Options) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	var err error
	if tx.Date, err = parseDate("date", in.Date); err != nil {
		return nil, err
	}
	if tx.Customer, err = required("customer", in.Customer); err != nil {
		return nil, err
	}
	if tx.Type, err = opts.transactionType(in.Type); err != nil {
		return nil, err
	}
	if tx.Currency, err = opts.currency(in.Currency); err != nil {
		return nil, err
	}
	if tx.Amount, err = positive("amount", in.Amount); err != nil {
		return nil, err
	}
	if tx.Rate, err = positive("rate", in.Rate); err != nil {
		return nil, err
	}
	if tx.Staff, err = required("staff", in.Staff); err != nil {
		return nil, err
	}
	tx.ValueInBase = domain.ValueOf(tx.Amount, tx.Rate)
	tx.Nature = strings.TrimSpace(in.Nature)
	tx.Source = strings.TrimSpace(in.Source)
	tx.Notes = in.Notes
	tx.SwapID = in.SwapID
	tx.Status = domain.TransactionStatusComplete

	for i, leg := range in.Legs {
		if _, err := newLeg(leg, tx.Currency, opts); err != nil {
			if ve, ok := err.(*domain.ValidationError); ok {
				ve.Field = sprintf("legs[%d].%s", i, ve.Field)
			}
			return nil, err
		}
	}
	return tx, nil
}

// newLeg validates a leg input. An empty currency defaults to the
// transaction currency.
func newLeg(in domain.LegInput, txCurrency string, opts Options) (*domain.SettlementLeg, error) {
	leg := &domain.SettlementLeg{
		SettlementType: domain.SettlementType(strings.TrimSpace(in.SettlementType)),
		BankAccount:    strings.TrimSpace(in.BankAccount),
		Status:         strings.TrimSpace(in.Status),
		Notes:          in.Notes,
	}
	if !leg.SettlementType.IsValid() {
		return nil, domain.NewValidationError("settlement_type", "%q is not a known settlement type", in.SettlementType)
	}
	currency := in.Currency
	if strings.TrimSpace(currency) == "" {
		currency = txCurrency
	}
	var err error
	if leg.Currency, err = opts.currency(currency); err != nil {
		return nil, err
	}
	if leg.Amount, err = nonZero("amount", in.Amount); err != nil {
		return nil, err
	}
	return leg, nil
}

// applyPatch overwrites tx with the non-nil patch fields, validating each.
func applyPatch(tx *domain.Transaction, patch domain.TransactionPatch, opts Options) error {
	var err error
	if patch.Date != nil {
		if tx.Date, err = parseDate("date", *patch.Date); err != nil {
			return err
		}
	}
	if patch.Customer != nil {
		if tx.Customer, err = required("customer", *patch.Customer); err != nil {
			return err
		}
	}
	if patch.Type != nil {
		if tx.Type, err = opts.transactionType(*patch.Type); err != nil {
			return err
		}
	}
	if patch.Currency != nil {
		if tx.Currency, err = opts.currency(*patch.Currency); err != nil {
			return err
		}
	}
	if patch.Amount != nil {
		if tx.Amount, err = positive("amount", *patch.Amount); err != nil {
			return err
		}
	}
	if patch.Rate != nil {
		if tx.Rate, err = positive("rate", *patch.Rate); err != nil {
			return err
		}
	}
	if patch.Staff != nil {
		if tx.Staff, err = required("staff", *patch.Staff); err != nil {
			return err
		}
	}
	if patch.Status != nil {
		status := domain.TransactionStatus(strings.TrimSpace(*patch.Status))
		if !status.IsValid() {
			return domain.NewValidationError("status", "%q is not a known status", *patch.Status)
		}
		tx.Status = status
	}
	if patch.Nature != nil {
		tx.Nature = strings.TrimSpace(*patch.Nature)
	}
	if patch.Source != nil {
		tx.Source = strings.TrimSpace(*patch.Source)
	}
	if patch.Notes != nil {
		tx.Notes = *patch.Notes
	}
	if patch.Amount != nil || patch.Rate != nil {
		tx.ValueInBase = domain.ValueOf(tx.Amount, tx.Rate)
	}
	return nil
}
