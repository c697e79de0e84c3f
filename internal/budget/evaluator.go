package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// errAlertExists rolls back an alert unit whose key was already recorded.
var errAlertExists = errors.New("budget alert already raised")

// Evaluation is the outcome of checking one budget.
type Evaluation struct {
	Notification *model.Notification
	Alert        model.AlertKind
	Progress     model.BudgetProgress
	Raised       bool
}

// Evaluate checks every active budget of owner against the current time.
func (s *Service) Evaluate(ctx context.Context, ownerID string) ([]Evaluation, error) {
	return s.EvaluateAt(ctx, ownerID, s.now())
}

// EvaluateOwner evaluates owner's budgets at now and discards the details.
func (s *Service) EvaluateOwner(ctx context.Context, ownerID string, now time.Time) error {
	_, err := s.EvaluateAt(ctx, ownerID, now)
	return err
}

// EvaluateAt checks every active budget of owner in the window containing now. A
// budget at or over its limit raises an exceeded alert; one at or over the warning
// threshold raises a warning. Each (budget, kind, window) alert is raised once.
func (s *Service) EvaluateAt(ctx context.Context, ownerID string, now time.Time) ([]Evaluation, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	budgets, err := s.store.ListBudgets(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}

	evaluations := make([]Evaluation, 0, len(budgets))
	for i := range budgets {
		budget := &budgets[i]
		if !budget.Started(now) || budget.Ended(now) {
			continue
		}

		progress, err := s.progress(ctx, budget, now)
		if err != nil {
			return evaluations, err
		}

		eval := Evaluation{Progress: *progress, Alert: s.alertKind(progress.PercentUsed)}
		if eval.Alert != "" {
			eval.Notification, eval.Raised, err = s.raise(ctx, progress, eval.Alert)
			if err != nil {
				return evaluations, err
			}
		}
		evaluations = append(evaluations, eval)
	}

	slog.Debug("Evaluated budgets", "owner", ownerID, "count", len(evaluations))
	return evaluations, nil
}

func (s *Service) alertKind(percent decimal.Decimal) model.AlertKind {
	switch {
	case percent.GreaterThanOrEqual(hundred):
		return model.AlertExceeded
	case percent.GreaterThanOrEqual(s.warning):
		return model.AlertWarning
	default:
		return ""
	}
}

// raise writes the notification and its dedup record in one unit. If the record
// already exists the unit is rolled back and nothing is created.
func (s *Service) raise(ctx context.Context, progress *model.BudgetProgress, kind model.AlertKind) (*model.Notification, bool, error) {
	budget := progress.Budget
	notification := alertNotification(progress, kind)

	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		if err := tx.InsertNotification(ctx, notification); err != nil {
			return err
		}

		inserted, err := tx.InsertBudgetAlert(ctx, &model.BudgetAlert{
			OwnerID:        budget.OwnerID,
			BudgetID:       budget.ID,
			Kind:           kind,
			WindowStart:    progress.Window.Start,
			NotificationID: notification.ID,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errAlertExists
		}
		return nil
	})
	if errors.Is(err, errAlertExists) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	slog.Info("Raised budget alert",
		"owner", budget.OwnerID,
		"budget", budget.ID,
		"kind", kind,
		"window_start", progress.Window.Start.Format(time.DateOnly),
		"percent", progress.PercentUsed.StringFixed(1))
	return notification, true, nil
}

func alertNotification(progress *model.BudgetProgress, kind model.AlertKind) *model.Notification {
	budget := progress.Budget

	title := fmt.Sprintf("Budget %q almost reached", budget.Name)
	if kind == model.AlertExceeded {
		title = fmt.Sprintf("Budget %q exceeded", budget.Name)
	}

	return &model.Notification{
		OwnerID: budget.OwnerID,
		Type:    kind.NotificationType(),
		Title:   title,
		Message: fmt.Sprintf("Spent %s of %s (%s%%) between %s and %s.",
			progress.Spent.StringFixed(2),
			budget.Amount.StringFixed(2),
			progress.PercentUsed.StringFixed(0),
			progress.Window.Start.Format(time.DateOnly),
			progress.Window.LastDay().Format(time.DateOnly)),
		ActionURL: fmt.Sprintf("/budgets/%d", budget.ID),
	}
}
