package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"fxdesk-ledger/internal/bootstrap"
	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/security"
	"fxdesk-ledger/internal/service"
	"fxdesk-ledger/internal/utils"

	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&reconcileCmd{},
	&inventoryCmd{},
	&tokenCmd{},
}

// withServices loads the configuration, opens the store and hands the wired
// services to fn.
func withServices(ctx context.Context, fn func(*config.Config, *service.Services) error) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	backend, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(cfg, bootstrap.NewServices(cfg, backend.Store))
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(s)
}

type reconcileCmd struct {
	date     string
	currency string
	cascade  bool
	through  string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "recompute the daily inventory of a currency" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl reconcile -d <date> [-c <currency>] [-cascade [-through <date>]]

  Recomputes the inventory entry for one day. With -cascade every later day
  with activity is recomputed too, oldest first. Without -c every configured
  currency is reconciled.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "The business date to reconcile (yyyy-mm-dd). Defaults to today.")
	f.StringVar(&c.currency, "c", "", "The currency to reconcile.")
	f.BoolVar(&c.cascade, "cascade", false, "Also reconcile every later day.")
	f.StringVar(&c.through, "through", "", "Last day of the cascade (defaults to open-ended).")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date := utils.Today()
	if c.date != "" {
		d, err := utils.ParseDate(c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		date = d
	}
	through, err := optionalDate(c.through)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing through date: %v\n", err)
		return subcommands.ExitUsageError
	}

	err = withServices(ctx, func(cfg *config.Config, svc *service.Services) error {
		currencies := cfg.Ledger.Currencies
		if c.currency != "" {
			currencies = []string{c.currency}
		}
		var entries []domain.DailyInventoryEntry
		for _, cur := range currencies {
			if c.cascade {
				got, err := svc.Inventory.ReconcileForward(ctx, date, cur, through)
				if err != nil {
					return err
				}
				entries = append(entries, got...)
				continue
			}
			entry, err := svc.Inventory.Reconcile(ctx, date, cur)
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return printInventory(os.Stdout, entries)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type inventoryCmd struct {
	currency string
	from     string
	to       string
}

func (*inventoryCmd) Name() string     { return "inventory" }
func (*inventoryCmd) Synopsis() string { return "list stored daily inventory entries" }
func (*inventoryCmd) Usage() string {
	return `ledgerctl inventory -c <currency> [-from <date>] [-to <date>]
`
}

func (c *inventoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "The currency to list.")
	f.StringVar(&c.from, "from", "", "First day to list.")
	f.StringVar(&c.to, "to", "", "Last day to list.")
}

func (c *inventoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currency == "" {
		fmt.Fprintln(os.Stderr, "-c is required")
		return subcommands.ExitUsageError
	}
	from, err := optionalDate(c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing from date: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := optionalDate(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing to date: %v\n", err)
		return subcommands.ExitUsageError
	}

	err = withServices(ctx, func(_ *config.Config, svc *service.Services) error {
		entries, err := svc.Inventory.GetInventory(ctx, c.currency, from, to)
		if err != nil {
			return err
		}
		return printInventory(os.Stdout, entries)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	staff      string
	supervisor bool
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a staff API token" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token -staff <name> [-supervisor]
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.staff, "staff", "", "The staff member the token is issued to.")
	f.BoolVar(&c.supervisor, "supervisor", false, "Grant the supervisor role.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	roles := []string{security.RoleStaff}
	if c.supervisor {
		roles = append(roles, security.RoleSupervisor)
	}
	tm := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	token, err := tm.GenerateStaffToken(c.staff, roles)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

func printInventory(w io.Writer, entries []domain.DailyInventoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join([]string{"Date", "Currency", "Opening", "Buys", "Sells", "Adjustments", "Closing", ""}, "\t"))
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", utils.FormatDate(e.Date), e.Currency,
			e.OpeningBalance.StringFixed(2), e.BuysTotal.StringFixed(2), e.SellsTotal.StringFixed(2),
			e.AdjustmentsTotal.StringFixed(2), e.ClosingBalance.StringFixed(2))
	}
	return tw.Flush()
}
