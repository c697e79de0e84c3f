package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/budget"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/loan"
	"github.com/Veraticus/spice-ledger/internal/notify"
	"github.com/Veraticus/spice-ledger/internal/recurring"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// loadedConfig is set by initConfig before any command runs.
var loadedConfig *config.Config

// app wires the engines over one open database.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	ledger    *ledger.Ledger
	scheduler *recurring.Scheduler
	loans     *loan.Service
	budgets   *budget.Service
	notes     *notify.Service
}

// openApp opens and migrates the database and builds every service.
func openApp(ctx context.Context, progress recurring.ProgressFunc) (*app, error) {
	cfg := loadedConfig
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", common.ErrMissingConfig)
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("cannot open the ledger database at %s (set --db or database.path)", cfg.Database.Path), err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("database schema could not be upgraded; run 'ledger migrate' for details", err)
	}

	retry := cfg.RetryOptions()
	l := ledger.New(store, ledger.Config{DefaultCurrency: cfg.Wallet.DefaultCurrency, Retry: retry})
	budgets := budget.New(store, budget.Config{Now: time.Now, WarningPercent: cfg.WarningThreshold()})
	scheduler := recurring.New(store, l.Mutator(), budgets, recurring.Config{
		Progress:   progress,
		Retry:      retry,
		Workers:    cfg.Scheduler.Workers,
		MaxCatchUp: cfg.Scheduler.MaxCatchUp,
	})

	return &app{
		cfg:       cfg,
		store:     store,
		ledger:    l,
		scheduler: scheduler,
		loans:     loan.New(store, time.Now),
		budgets:   budgets,
		notes:     notify.New(store),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) issuer() (*identity.Issuer, error) {
	return identity.NewIssuer(a.cfg.Auth.Secret)
}

// owner verifies the configured token and returns the owner it names.
func (a *app) owner() (string, error) {
	token := a.cfg.Auth.Token
	if token == "" {
		token = os.Getenv("LEDGER_AUTH_TOKEN")
	}
	if token == "" {
		return "", common.NewUserError("no owner token; create one with 'ledger auth token <owner>' and pass it with --token or LEDGER_AUTH_TOKEN",
			common.ErrUnauthorized)
	}

	issuer, err := a.issuer()
	if err != nil {
		return "", common.NewUserError("auth.secret must be set (LEDGER_AUTH_SECRET) to verify tokens", err)
	}
	owner, err := issuer.Verify(token)
	if err != nil {
		return "", common.NewUserError("token rejected; it may be expired or signed with another secret", err)
	}
	return owner, nil
}

// withOwner opens the app, resolves the owner and runs fn.
func withOwner(cmd *cobra.Command, fn func(ctx context.Context, a *app, owner string) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	owner, err := a.owner()
	if err != nil {
		return err
	}
	return fn(ctx, a, owner)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Validationf("invalid %s id %q", what, s)
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, common.Validationf("invalid amount %q", s)
	}
	return amount, nil
}

// parseDate parses YYYY-MM-DD; "" and "today" mean today.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, common.Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// optionalDate parses a date flag that may be unset.
func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDay(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatOptionalDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDay(*t)
}
