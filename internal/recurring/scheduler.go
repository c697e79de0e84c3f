// Package recurring materializes due occurrences of recurring definitions into the
// ledger, exactly once per occurrence.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"golang.org/x/sync/errgroup"
)

// OwnerEvaluator is notified once per owner whose ledger changed during a batch.
type OwnerEvaluator interface {
	EvaluateOwner(ctx context.Context, ownerID string, now time.Time) error
}

// ProgressFunc reports batch progress: done of total definitions processed.
type ProgressFunc func(done, total int)

// Config holds configuration options for the scheduler.
type Config struct {
	Progress   ProgressFunc
	Retry      common.RetryOptions
	Workers    int
	MaxCatchUp int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Retry:      common.RetryOptions{MaxAttempts: 3},
		Workers:    1,
		MaxCatchUp: 366,
	}
}

// Scheduler runs due recurring definitions and manages their lifecycle.
type Scheduler struct {
	store      service.Storage
	mutator    *ledger.Mutator
	evaluator  OwnerEvaluator
	progress   ProgressFunc
	retry      common.RetryOptions
	workers    int
	maxCatchUp int
}

// New creates a scheduler. evaluator may be nil.
func New(store service.Storage, mutator *ledger.Mutator, evaluator OwnerEvaluator, cfg Config) *Scheduler {
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.MaxCatchUp <= 0 {
		cfg.MaxCatchUp = defaults.MaxCatchUp
	}
	return &Scheduler{
		store:      store,
		mutator:    mutator,
		evaluator:  evaluator,
		progress:   cfg.Progress,
		retry:      cfg.Retry,
		workers:    cfg.Workers,
		maxCatchUp: cfg.MaxCatchUp,
	}
}

// Result summarizes one ProcessDue batch.
type Result struct {
	Owners       []string
	Errors       []error
	Definitions  int
	Materialized int
	Failed       int
}

// ProcessDue materializes every occurrence due at now. Each occurrence is its own
// atomic unit; a definition that is several occurrences behind catches up within the
// call, up to the configured limit. Failures of one definition do not stop the others
// and are reported in the Result.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) (*Result, error) {
	due, err := s.store.ListDueRecurring(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due recurring definitions: %w", err)
	}

	result := &Result{Definitions: len(due)}
	if len(due) == 0 {
		slog.Debug("No recurring definitions due", "now", now)
		return result, nil
	}

	slog.Info("Processing due recurring definitions", "count", len(due), "workers", s.workers)
	s.reportProgress(0, len(due))

	var (
		mu     sync.Mutex
		done   int
		owners = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, def := range due {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			n, err := s.processDefinition(gctx, def, now)

			mu.Lock()
			defer mu.Unlock()

			result.Materialized += n
			if n > 0 {
				owners[def.OwnerID] = struct{}{}
			}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("recurring definition %d: %w", def.ID, err))
				common.LogError(err, "Recurring definition failed", common.Fields{
					"definition": def.ID,
					"owner":      def.OwnerID,
				})
			}
			done++
			s.reportProgress(done, len(due))
			return nil
		})
	}

	waitErr := g.Wait()

	for owner := range owners {
		result.Owners = append(result.Owners, owner)
	}
	sort.Strings(result.Owners)

	if waitErr != nil {
		return result, waitErr
	}

	s.evaluateOwners(ctx, result.Owners, now)

	slog.Info("Recurring batch complete",
		"definitions", result.Definitions,
		"materialized", result.Materialized,
		"failed", result.Failed)
	return result, nil
}

func (s *Scheduler) reportProgress(done, total int) {
	if s.progress != nil {
		s.progress(done, total)
	}
}

func (s *Scheduler) evaluateOwners(ctx context.Context, owners []string, now time.Time) {
	if s.evaluator == nil {
		return
	}
	for _, owner := range owners {
		if err := s.evaluator.EvaluateOwner(ctx, owner, now); err != nil {
			common.LogError(err, "Budget evaluation after recurring batch failed", common.Fields{"owner": owner})
		}
	}
}

// processDefinition materializes occurrences of one definition until it is no longer
// due or the catch-up limit is reached.
func (s *Scheduler) processDefinition(ctx context.Context, def model.RecurringDefinition, now time.Time) (int, error) {
	materialized := 0
	for materialized < s.maxCatchUp {
		if err := ctx.Err(); err != nil {
			return materialized, err
		}

		ok, err := s.materializeNext(ctx, def.ID, now)
		if err != nil {
			return materialized, err
		}
		if !ok {
			return materialized, nil
		}
		materialized++
	}

	slog.Warn("Recurring definition hit catch-up limit",
		"definition", def.ID,
		"limit", s.maxCatchUp)
	return materialized, nil
}

// materializeNext records the definition's next occurrence if it is still due. It
// returns false when there was nothing to do.
func (s *Scheduler) materializeNext(ctx context.Context, id int64, now time.Time) (bool, error) {
	var created bool
	err := service.InTxWithRetry(ctx, s.store, s.retry, func(tx service.Tx) error {
		created = false

		def, err := tx.GetRecurringByID(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !def.IsDue(now) {
			return nil
		}

		occurrence := def.NextRunDate
		txn := &model.Transaction{
			OwnerID:     def.OwnerID,
			WalletID:    def.WalletID,
			CategoryID:  def.CategoryID,
			Kind:        def.Kind,
			Amount:      def.Amount,
			Date:        occurrence,
			Description: def.Description,
			RecurringID: &def.ID,
		}
		if err := s.mutator.ApplyCreate(ctx, tx, txn); err != nil {
			return err
		}

		next := def.Next()
		active := !def.PastEnd(next)
		if err := tx.AdvanceRecurring(ctx, def.ID, occurrence, next, now, active); err != nil {
			return err
		}

		if err := tx.InsertNotification(ctx, chargeNotification(def, txn)); err != nil {
			return err
		}

		created = true
		slog.Debug("Materialized recurring occurrence",
			"definition", def.ID,
			"occurrence", occurrence.Format(time.DateOnly),
			"next", next.Format(time.DateOnly),
			"active", active)
		return nil
	})
	return created, err
}

func chargeNotification(def *model.RecurringDefinition, txn *model.Transaction) *model.Notification {
	label := def.Description
	if label == "" {
		label = fmt.Sprintf("Recurring %s", def.Frequency)
	}

	verb := "charged"
	if def.Kind == model.KindIncome {
		verb = "received"
	}

	return &model.Notification{
		OwnerID: def.OwnerID,
		Type:    model.NotificationSuccess,
		Title:   "Recurring transaction recorded",
		Message: fmt.Sprintf("%s: %s %s on %s",
			label, txn.Amount.StringFixed(2), verb, txn.Date.Format(time.DateOnly)),
		ActionURL: fmt.Sprintf("/transactions/%d", txn.ID),
	}
}
