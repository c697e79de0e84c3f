// Package budget manages spending budgets and raises threshold alerts, at most once
// per budget, alert kind and period window.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Service manages budgets and evaluates them against the ledger.
type Service struct {
	store   service.Storage
	now     func() time.Time
	warning decimal.Decimal
}

// Config holds configuration options for budget evaluation.
type Config struct {
	Now            func() time.Time
	WarningPercent decimal.Decimal
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Now:            time.Now,
		WarningPercent: decimal.NewFromInt(80),
	}
}

// New creates a budget service.
func New(store service.Storage, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	if !cfg.WarningPercent.IsPositive() {
		cfg.WarningPercent = defaults.WarningPercent
	}
	return &Service{store: store, now: cfg.Now, warning: cfg.WarningPercent}
}

// BudgetInput describes a new budget.
type BudgetInput struct {
	StartDate   time.Time
	EndDate     *time.Time
	Amount      decimal.Decimal
	OwnerID     string
	Name        string
	Period      model.BudgetPeriod
	CategoryIDs []int64
}

// BudgetEdit lists the fields to change; nil fields keep their value.
type BudgetEdit struct {
	EndDate     *time.Time
	Amount      *decimal.Decimal
	Name        *string
	Period      *model.BudgetPeriod
	IsActive    *bool
	CategoryIDs []int64
	ClearEnd    bool
}

// Create stores a new active budget.
func (s *Service) Create(ctx context.Context, in BudgetInput) (*model.Budget, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}

	budget := &model.Budget{
		OwnerID:     in.OwnerID,
		Name:        strings.TrimSpace(in.Name),
		Amount:      in.Amount,
		Period:      in.Period,
		StartDate:   model.Day(in.StartDate),
		EndDate:     dayPtr(in.EndDate),
		CategoryIDs: in.CategoryIDs,
		IsActive:    true,
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		if err := checkCategories(ctx, tx, budget); err != nil {
			return err
		}
		return tx.CreateBudget(ctx, budget)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created budget",
		"owner", budget.OwnerID,
		"budget", budget.ID,
		"period", budget.Period,
		"amount", budget.Amount.String())
	return budget, nil
}

// Get returns one of owner's budgets.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*model.Budget, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.GetBudget(ctx, ownerID, id)
}

// List returns owner's budgets.
func (s *Service) List(ctx context.Context, ownerID string, activeOnly bool) ([]model.Budget, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListBudgets(ctx, ownerID, activeOnly)
}

// Update changes a budget.
func (s *Service) Update(ctx context.Context, ownerID string, id int64, edit BudgetEdit) (*model.Budget, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var budget *model.Budget
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		budget, err = tx.GetBudget(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if edit.Name != nil {
			budget.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.Amount != nil {
			budget.Amount = *edit.Amount
		}
		if edit.Period != nil {
			budget.Period = *edit.Period
		}
		if edit.IsActive != nil {
			budget.IsActive = *edit.IsActive
		}
		if edit.CategoryIDs != nil {
			budget.CategoryIDs = edit.CategoryIDs
		}
		if edit.ClearEnd {
			budget.EndDate = nil
		} else if edit.EndDate != nil {
			budget.EndDate = dayPtr(edit.EndDate)
		}

		if err := budget.Validate(); err != nil {
			return err
		}
		if err := checkCategories(ctx, tx, budget); err != nil {
			return err
		}
		return tx.UpdateBudget(ctx, budget)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Updated budget", "owner", ownerID, "budget", id)
	return budget, nil
}

// Delete removes a budget and its alert history.
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, ownerID, id); err != nil {
		return err
	}
	slog.Info("Deleted budget", "owner", ownerID, "budget", id)
	return nil
}

// Progress returns a budget's spend in the window containing the current time.
// It never raises alerts.
func (s *Service) Progress(ctx context.Context, ownerID string, id int64) (*model.BudgetProgress, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	budget, err := s.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, budget, s.now())
}

func (s *Service) progress(ctx context.Context, budget *model.Budget, now time.Time) (*model.BudgetProgress, error) {
	window := budget.WindowAt(now)

	spent, err := s.store.SumExpenses(ctx, budget.OwnerID, budget.CategoryIDs, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to sum spend for budget %d: %w", budget.ID, err)
	}

	return &model.BudgetProgress{
		Budget:      *budget,
		Window:      window,
		Spent:       spent,
		Remaining:   budget.Amount.Sub(spent),
		PercentUsed: model.PercentUsed(spent, budget.Amount),
	}, nil
}

func checkCategories(ctx context.Context, tx service.Store, budget *model.Budget) error {
	for _, id := range budget.CategoryIDs {
		category, err := tx.GetCategory(ctx, budget.OwnerID, id)
		if err != nil {
			return err
		}
		if category.Type != model.CategoryTypeExpense {
			return common.Validationf("budget categories must be EXPENSE categories, %q is %s",
				category.Name, category.Type)
		}
	}
	return nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.Day(*t)
	return &d
}
