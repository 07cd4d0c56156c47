package service

import (
	"fmt"
	"strings"

	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

const adjustmentIDPrefix = "ADJ-"

// Options is the ledger behaviour taken from the ledger config section.
type Options struct {
	TransactionIDPrefix string
	AutoUpdateInventory bool
	CascadeOnWrite      bool
	CompensateSwaps     bool
	Currencies          []string
	TransactionTypes    []string
	Epsilon             decimal.Decimal
}

func OptionsFromConfig(l config.LedgerConfig) Options {
	return Options{
		TransactionIDPrefix: l.TransactionIDPrefix,
		AutoUpdateInventory: l.AutoUpdate(),
		CascadeOnWrite:      l.CascadeOnWrite,
		CompensateSwaps:     l.Compensate(),
		Currencies:          l.Currencies,
		TransactionTypes:    l.TransactionTypes,
		Epsilon:             l.EpsilonValue(),
	}
}

func (o Options) epsilon() decimal.Decimal {
	if o.Epsilon.IsPositive() {
		return o.Epsilon
	}
	return domain.DefaultEpsilon
}

// currency normalizes c and reports whether it is configured.
func (o Options) currency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "", domain.NewValidationError("currency", "is required")
	}
	for _, known := range o.Currencies {
		if known == c {
			return c, nil
		}
	}
	return "", domain.NewValidationError("currency", "%q is not a configured currency", c)
}

// transactionType accepts configured types that the ledger knows how to book.
func (o Options) transactionType(t string) (domain.TransactionType, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", domain.NewValidationError("type", "is required")
	}
	types := o.TransactionTypes
	if len(types) == 0 {
		types = []string{string(domain.TransactionTypeBuy), string(domain.TransactionTypeSell)}
	}
	for _, known := range types {
		if !strings.EqualFold(known, t) {
			continue
		}
		switch {
		case strings.EqualFold(t, string(domain.TransactionTypeBuy)):
			return domain.TransactionTypeBuy, nil
		case strings.EqualFold(t, string(domain.TransactionTypeSell)):
			return domain.TransactionTypeSell, nil
		}
	}
	return "", domain.NewValidationError("type", "%q is not a configured transaction type", t)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
