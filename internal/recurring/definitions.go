package recurring

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

// DefinitionInput describes a new recurring definition.
type DefinitionInput struct {
	StartDate   time.Time
	EndDate     *time.Time
	Amount      decimal.Decimal
	OwnerID     string
	Kind        model.TransactionKind
	Frequency   model.Frequency
	Description string
	WalletID    int64
	CategoryID  int64
}

// DefinitionEdit lists the fields to change; nil fields keep their value.
type DefinitionEdit struct {
	Amount      *decimal.Decimal
	Description *string
	Frequency   *model.Frequency
	EndDate     *time.Time
	WalletID    *int64
	CategoryID  *int64
	ClearEnd    bool
}

// Create stores a new definition whose first occurrence is its start date.
func (s *Scheduler) Create(ctx context.Context, in DefinitionInput) (*model.RecurringDefinition, error) {
	if err := common.RequireOwner(in.OwnerID); err != nil {
		return nil, err
	}

	start := model.Day(in.StartDate)
	def := &model.RecurringDefinition{
		OwnerID:     in.OwnerID,
		WalletID:    in.WalletID,
		CategoryID:  in.CategoryID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		Description: strings.TrimSpace(in.Description),
		StartDate:   start,
		NextRunDate: start,
		EndDate:     dayPtr(in.EndDate),
		IsActive:    true,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		if err := checkTargets(ctx, tx, def); err != nil {
			return err
		}
		return tx.CreateRecurring(ctx, def)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created recurring definition",
		"owner", def.OwnerID,
		"id", def.ID,
		"frequency", def.Frequency,
		"amount", def.Amount.String(),
		"first_run", def.NextRunDate.Format(time.DateOnly))
	return def, nil
}

// Get returns one of owner's definitions.
func (s *Scheduler) Get(ctx context.Context, ownerID string, id int64) (*model.RecurringDefinition, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.GetRecurring(ctx, ownerID, id)
}

// List returns owner's definitions.
func (s *Scheduler) List(ctx context.Context, ownerID string) ([]model.RecurringDefinition, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListRecurring(ctx, ownerID)
}

// Update changes a definition. Already materialized transactions are not touched.
func (s *Scheduler) Update(ctx context.Context, ownerID string, id int64, edit DefinitionEdit) (*model.RecurringDefinition, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var def *model.RecurringDefinition
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		def, err = tx.GetRecurring(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if edit.Amount != nil {
			def.Amount = *edit.Amount
		}
		if edit.Description != nil {
			def.Description = strings.TrimSpace(*edit.Description)
		}
		if edit.Frequency != nil {
			def.Frequency = *edit.Frequency
		}
		if edit.WalletID != nil {
			def.WalletID = *edit.WalletID
		}
		if edit.CategoryID != nil {
			def.CategoryID = *edit.CategoryID
		}
		if edit.ClearEnd {
			def.EndDate = nil
		} else if edit.EndDate != nil {
			def.EndDate = dayPtr(edit.EndDate)
		}
		if def.PastEnd(def.NextRunDate) {
			def.IsActive = false
		}

		if err := def.Validate(); err != nil {
			return err
		}
		if err := checkTargets(ctx, tx, def); err != nil {
			return err
		}
		return tx.UpdateRecurring(ctx, def)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Updated recurring definition", "owner", ownerID, "id", id, "active", def.IsActive)
	return def, nil
}

// Pause stops a definition from running.
func (s *Scheduler) Pause(ctx context.Context, ownerID string, id int64) (*model.RecurringDefinition, error) {
	return s.setActive(ctx, ownerID, id, false, time.Time{})
}

// Resume restarts a paused definition. Occurrences that fell due while it was paused
// are skipped rather than back-charged.
func (s *Scheduler) Resume(ctx context.Context, ownerID string, id int64, now time.Time) (*model.RecurringDefinition, error) {
	return s.setActive(ctx, ownerID, id, true, now)
}

func (s *Scheduler) setActive(ctx context.Context, ownerID string, id int64, active bool, now time.Time) (*model.RecurringDefinition, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	var def *model.RecurringDefinition
	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		var err error
		def, err = tx.GetRecurring(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if active {
			if def.IsActive {
				return nil
			}
			today := model.Day(now)
			for def.NextRunDate.Before(today) && !def.PastEnd(def.NextRunDate) {
				def.NextRunDate = def.Next()
			}
			if def.PastEnd(def.NextRunDate) {
				return common.Validationf("recurring definition %d has run past its end date %s",
					id, def.EndDate.Format(time.DateOnly))
			}
		}

		def.IsActive = active
		return tx.UpdateRecurring(ctx, def)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Changed recurring definition state",
		"owner", ownerID,
		"id", id,
		"active", active,
		"next_run", def.NextRunDate.Format(time.DateOnly))
	return def, nil
}

// Delete removes a definition. Transactions it created stay in the ledger.
func (s *Scheduler) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}

	err := service.InTx(ctx, s.store, func(tx service.Tx) error {
		return tx.DeleteRecurring(ctx, ownerID, id)
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted recurring definition", "owner", ownerID, "id", id)
	return nil
}

// checkTargets verifies the wallet and category exist for the owner and fit the kind.
func checkTargets(ctx context.Context, tx service.Store, def *model.RecurringDefinition) error {
	wallet, err := tx.GetWallet(ctx, def.OwnerID, def.WalletID)
	if err != nil {
		return err
	}
	if wallet.Archived {
		return common.Validationf("wallet %q is archived", wallet.Name)
	}

	category, err := tx.GetCategory(ctx, def.OwnerID, def.CategoryID)
	if err != nil {
		return err
	}
	if want := def.Kind.CategoryType(); category.Type != want {
		return fmt.Errorf("%w: %s definition needs a %s category, %q is %s",
			common.ErrValidation, def.Kind, want, category.Name, category.Type)
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
