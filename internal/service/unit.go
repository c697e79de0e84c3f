package service

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// InTx runs fn as one atomic unit: fn's writes are committed together if it returns
// nil and rolled back otherwise.
func InTx(ctx context.Context, s Storage, fn func(tx Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: failed to commit: %w", common.ErrPersistence, err)
	}
	return nil
}

// InTxWithRetry runs fn as an atomic unit and re-runs the whole unit when it fails
// with a conflict.
func InTxWithRetry(ctx context.Context, s Storage, opts common.RetryOptions, fn func(tx Tx) error) error {
	return common.WithRetry(ctx, func() error {
		return InTx(ctx, s, fn)
	}, opts)
}
