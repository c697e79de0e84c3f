package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const recurringColumns = `id, owner_id, wallet_id, category_id, kind, amount, description, frequency,
	start_date, next_run_date, end_date, last_run_at, is_active, created_at, updated_at`

func scanRecurring(row interface{ Scan(...any) error }) (*model.RecurringDefinition, error) {
	var (
		r         model.RecurringDefinition
		endDate   sql.NullTime
		lastRunAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.WalletID, &r.CategoryID, &r.Kind, &r.Amount,
		&r.Description, &r.Frequency, &r.StartDate, &r.NextRunDate, &endDate, &lastRunAt,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.StartDate = r.StartDate.UTC()
	r.NextRunDate = r.NextRunDate.UTC()
	r.EndDate = timePtr(endDate)
	r.LastRunAt = timePtr(lastRunAt)
	return &r, nil
}

// CreateRecurring inserts a recurring definition.
func (q *queries) CreateRecurring(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateNotNil(ctx, def, "recurring definition"); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO recurring_definitions (owner_id, wallet_id, category_id, kind, amount, description,
			frequency, start_date, next_run_date, end_date, last_run_at, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.OwnerID, def.WalletID, def.CategoryID, def.Kind, def.Amount, def.Description,
		def.Frequency, utc(def.StartDate), utc(def.NextRunDate), utcPtr(def.EndDate), utcPtr(def.LastRunAt),
		def.IsActive, now, now)
	if err != nil {
		return dbError("create recurring definition", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get recurring definition id", err)
	}

	def.ID = id
	def.CreatedAt = now
	def.UpdatedAt = now

	slog.Debug("created recurring definition", "id", id, "frequency", def.Frequency, "next_run", def.NextRunDate)
	return nil
}

// GetRecurring returns an owner's recurring definition.
func (q *queries) GetRecurring(ctx context.Context, ownerID string, id int64) (*model.RecurringDefinition, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return q.getRecurring(ctx, `WHERE id = ? AND owner_id = ?`, id, ownerID)
}

// GetRecurringByID returns a recurring definition regardless of owner. The scheduler
// uses it to re-read a definition inside its own unit.
func (q *queries) GetRecurringByID(ctx context.Context, id int64) (*model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return q.getRecurring(ctx, `WHERE id = ?`, id)
}

func (q *queries) getRecurring(ctx context.Context, where string, args ...any) (*model.RecurringDefinition, error) {
	r, err := scanRecurring(q.q.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_definitions `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("recurring definition %v", args[0])
	}
	if err != nil {
		return nil, dbError("query recurring definition", err)
	}
	return r, nil
}

// ListRecurring returns an owner's recurring definitions ordered by next run.
func (q *queries) ListRecurring(ctx context.Context, ownerID string) ([]model.RecurringDefinition, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return q.collectRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE owner_id = ? ORDER BY next_run_date, id`, ownerID)
}

// ListDueRecurring returns every active definition, across owners, with an occurrence
// on or before now that does not fall past its end date.
func (q *queries) ListDueRecurring(ctx context.Context, now time.Time) ([]model.RecurringDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return q.collectRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE is_active = 1 AND next_run_date <= ?
		AND (end_date IS NULL OR next_run_date <= end_date)
		ORDER BY next_run_date, id`, utc(now))
}

func (q *queries) collectRecurring(ctx context.Context, query string, args ...any) ([]model.RecurringDefinition, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query recurring definitions", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []model.RecurringDefinition
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, dbError("scan recurring definition", err)
		}
		defs = append(defs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate recurring definitions", err)
	}
	return defs, nil
}

// UpdateRecurring rewrites a definition's editable fields and schedule state.
func (q *queries) UpdateRecurring(ctx context.Context, def *model.RecurringDefinition) error {
	if err := validateNotNil(ctx, def, "recurring definition"); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		UPDATE recurring_definitions
		SET wallet_id = ?, category_id = ?, amount = ?, description = ?, frequency = ?,
			next_run_date = ?, end_date = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		def.WalletID, def.CategoryID, def.Amount, def.Description, def.Frequency,
		utc(def.NextRunDate), utcPtr(def.EndDate), def.IsActive, now, def.ID, def.OwnerID)
	if err != nil {
		return dbError("update recurring definition", err)
	}
	if err := expectOne("update recurring definition", res, common.NotFoundf("recurring definition %d", def.ID)); err != nil {
		return err
	}

	def.UpdatedAt = now
	return nil
}

// AdvanceRecurring moves a definition from expectedNext to next. If another writer
// already moved it, common.ErrConflict is returned and nothing changes.
func (q *queries) AdvanceRecurring(ctx context.Context, id int64, expectedNext, next, lastRunAt time.Time, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `
		UPDATE recurring_definitions
		SET next_run_date = ?, last_run_at = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND next_run_date = ?`,
		utc(next), utc(lastRunAt), active, time.Now().UTC(), id, utc(expectedNext))
	if err != nil {
		return dbError("advance recurring definition", err)
	}

	n, err := rowsAffected("advance recurring definition", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: recurring definition %d already advanced past %s",
			common.ErrConflict, id, expectedNext.Format(time.DateOnly))
	}
	return nil
}

// DeleteRecurring removes a definition. Transactions it produced keep their rows with
// the back-reference cleared.
func (q *queries) DeleteRecurring(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	if _, err := q.q.ExecContext(ctx,
		`UPDATE transactions SET recurring_id = NULL WHERE recurring_id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return dbError("detach recurring transactions", err)
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM recurring_definitions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete recurring definition", err)
	}
	return expectOne("delete recurring definition", res, common.NotFoundf("recurring definition %d", id))
}
