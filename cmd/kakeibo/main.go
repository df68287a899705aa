package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/kakeibo/internal/budget"
	"github.com/jask/kakeibo/internal/config"
	"github.com/jask/kakeibo/internal/database"
	"github.com/jask/kakeibo/internal/log"
	"github.com/jask/kakeibo/internal/service"
)

const usage = `kakeibo - envelope budgeting with overflow

Usage:
  kakeibo add <amount>                     record income and allocate it
  kakeibo spend <category> <amount> [desc] record an expense
  kakeibo balances                         show current category balances
  kakeibo report [today|week|month|year|5y]
  kakeibo summary                          lifetime totals and balances
  kakeibo categories                       show the category graph
  kakeibo set-limit <category> <percent>   change an allocation percentage
  kakeibo set-overflow <category> [target] repoint overflow (no target = terminal)
  kakeibo reset --yes                      wipe all data and reseed defaults
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := log.New(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := database.SeedDefaults(ctx, db); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	svc := service.NewBudgetService(db, log.WithComponent(logger, "budget"))

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		logger.Warn("falling back to local timezone", "timezone", cfg.UI.Timezone, "err", err)
		loc = time.Local
	}

	app := &cli{cfg: cfg, svc: svc, loc: loc}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return app.add(ctx, rest)
	case "spend":
		return app.spend(ctx, rest)
	case "balances":
		return app.balances(ctx)
	case "report":
		return app.report(ctx, rest)
	case "summary":
		return app.summary(ctx)
	case "categories":
		return app.categories(ctx)
	case "set-limit":
		return app.setLimit(ctx, rest)
	case "set-overflow":
		return app.setOverflow(ctx, rest)
	case "reset":
		return app.reset(ctx, rest)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q (run kakeibo help)", cmd)
}

type cli struct {
	cfg config.Config
	svc *service.BudgetService
	loc *time.Location
}

func (a *cli) money(d decimal.Decimal) string {
	return a.cfg.UI.CurrencySymbol + " " + budget.FormatAmount(d)
}

func parseAmount(s string) (decimal.Decimal, error) {
	// Accept the grouped display form back as input ("1.000.000").
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ".", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q", s)
	}
	return d, nil
}

func (a *cli) add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kakeibo add <amount>")
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	fund, err := a.svc.AddFunds(ctx, amount)
	if err != nil {
		return err
	}
	fmt.Printf("added %s", a.money(fund.Amount))
	if !fund.RolloverSwept.IsZero() {
		fmt.Printf(" (rolled %s into savings)", a.money(fund.RolloverSwept))
	}
	fmt.Println()
	return a.balances(ctx)
}

func (a *cli) spend(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: kakeibo spend <category> <amount> [description]")
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	desc := strings.Join(args[2:], " ")

	txn, warning, err := a.svc.Spend(ctx, args[0], amount, desc)
	if err != nil {
		return err
	}
	fmt.Printf("spent %s on %s\n", a.money(txn.Amount), args[0])
	if txn.OverflowFromID != nil {
		fmt.Println("  covered by overflow")
	}
	if warning != nil {
		fmt.Fprintf(os.Stderr, "warning: overspent savings by %s\n", a.money(warning.Shortfall))
	}
	return nil
}

func (a *cli) balances(ctx context.Context) error {
	cats, err := a.svc.CategoryBalances(ctx)
	if err != nil {
		return err
	}
	for _, cb := range cats {
		marker := " "
		if cb.Balance.Available.IsNegative() {
			marker = "!"
		}
		fmt.Printf("%s %-12s %14s  (allocated %s, spent %s)\n",
			marker, cb.Category.Name,
			a.money(cb.Balance.Available),
			budget.FormatAmount(cb.Balance.Allocated),
			budget.FormatAmount(cb.Balance.Spent))
	}
	return nil
}

func (a *cli) report(ctx context.Context, args []string) error {
	r := service.RangeMonth
	if len(args) > 0 {
		var err error
		if r, err = service.ParseDateRange(args[0]); err != nil {
			return err
		}
	}
	records, err := a.svc.Report(ctx, r, time.Now().In(a.loc))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("no expenses in the last %s\n", r)
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s  %-12s %14s",
			rec.CreatedAt.In(a.loc).Format(a.cfg.UI.DateFormat),
			rec.CategoryName, a.money(rec.Amount))
		if rec.OverflowFromName != nil {
			line += fmt.Sprintf("  -> %s", *rec.OverflowFromName)
		}
		if rec.Description != "" {
			line += "  " + rec.Description
		}
		fmt.Println(line)
	}
	return nil
}

func (a *cli) summary(ctx context.Context) error {
	sum, err := a.svc.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("total added:     %s\n", a.money(sum.TotalAdded))
	fmt.Printf("total spent:     %s\n", a.money(sum.TotalSpent))
	fmt.Printf("total available: %s\n", a.money(sum.TotalAvailable))
	fmt.Println()
	return a.balances(ctx)
}

func (a *cli) categories(ctx context.Context) error {
	cats, err := a.svc.CategoryBalances(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]string, len(cats))
	for _, cb := range cats {
		byID[cb.Category.ID] = cb.Category.Name
	}
	for _, cb := range cats {
		c := cb.Category
		target := "(keeps leftovers)"
		if c.OverflowToID != nil {
			target = "-> " + byID[*c.OverflowToID]
		}
		fmt.Printf("%-12s %6s%%  %s\n", c.Name, c.LimitPercentage, target)
	}
	return nil
}

func (a *cli) setLimit(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: kakeibo set-limit <category> <percent>")
	}
	limit, err := decimal.NewFromString(strings.TrimSuffix(args[1], "%"))
	if err != nil {
		return fmt.Errorf("bad percentage %q", args[1])
	}
	total, err := a.svc.UpdateLimit(ctx, args[0], limit)
	if err != nil {
		return err
	}
	fmt.Printf("%s now allocates %s%%\n", args[0], limit)
	if !total.Equal(decimal.NewFromInt(100)) {
		fmt.Fprintf(os.Stderr, "warning: limits total %s%%, not 100%%\n", total)
	}
	return nil
}

func (a *cli) setOverflow(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: kakeibo set-overflow <category> [target]")
	}
	target := ""
	if len(args) == 2 {
		target = args[1]
	}
	if err := a.svc.SetOverflowTarget(ctx, args[0], target); err != nil {
		return err
	}
	if target == "" {
		fmt.Printf("%s now keeps its leftovers\n", args[0])
	} else {
		fmt.Printf("%s now overflows to %s\n", args[0], target)
	}
	return nil
}

func (a *cli) reset(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] != "--yes" {
		return fmt.Errorf("reset wipes all data; rerun with --yes to confirm")
	}
	if err := a.svc.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("reset to default categories")
	return nil
}
