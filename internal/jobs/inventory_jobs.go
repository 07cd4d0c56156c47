package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/utils"
)

// CascadeInventory re-reconciles every configured currency over the lookback
// window so that entries left stale by back-dated writes are refreshed.
// One currency failing does not stop the others.
func (jr *JobRunner) CascadeInventory() error {
	return jr.runWithRecovery("CascadeInventory", func() error {
		ctx := context.Background()
		lookback := jr.config.Scheduler.LookbackDays
		from := jr.now().AddDate(0, 0, -lookback)

		var errs []error
		for _, currency := range jr.config.Ledger.Currencies {
			entries, err := jr.services.Inventory.ReconcileForward(ctx, from, currency, time.Time{})
			if err != nil {
				logger.Error("Failed to cascade inventory", "currency", currency, "from", utils.FormatDate(from), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", currency, err))
				continue
			}
			logger.Info("Cascaded inventory", "currency", currency, "from", utils.FormatDate(from), "entries", len(entries))
		}
		return errors.Join(errs...)
	})
}
