package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const budgetColumns = `id, owner_id, name, amount, period, start_date, end_date, is_active, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (*model.Budget, error) {
	var (
		b       model.Budget
		endDate sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount, &b.Period, &b.StartDate, &endDate,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.StartDate = b.StartDate.UTC()
	b.EndDate = timePtr(endDate)
	return &b, nil
}

// CreateBudget inserts a budget and its category links.
func (q *queries) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateNotNil(ctx, budget, "budget"); err != nil {
		return err
	}
	if err := budget.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, name, amount, period, start_date, end_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.OwnerID, budget.Name, budget.Amount, budget.Period, utc(budget.StartDate),
		utcPtr(budget.EndDate), budget.IsActive, now, now)
	if err != nil {
		return dbError("create budget", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get budget id", err)
	}

	if err := q.linkBudgetCategories(ctx, id, budget.CategoryIDs); err != nil {
		return err
	}

	budget.ID = id
	budget.CreatedAt = now
	budget.UpdatedAt = now

	slog.Debug("created budget", "id", id, "name", budget.Name, "period", budget.Period)
	return nil
}

func (q *queries) linkBudgetCategories(ctx context.Context, budgetID int64, categoryIDs []int64) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM budget_categories WHERE budget_id = ?`, budgetID); err != nil {
		return dbError("clear budget categories", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := q.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO budget_categories (budget_id, category_id) VALUES (?, ?)`,
			budgetID, categoryID); err != nil {
			return dbError("link budget category", err)
		}
	}
	return nil
}

func (q *queries) loadBudgetCategories(ctx context.Context, budget *model.Budget) error {
	rows, err := q.q.QueryContext(ctx,
		`SELECT category_id FROM budget_categories WHERE budget_id = ? ORDER BY category_id`, budget.ID)
	if err != nil {
		return dbError("query budget categories", err)
	}
	defer func() { _ = rows.Close() }()

	budget.CategoryIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return dbError("scan budget category", err)
		}
		budget.CategoryIDs = append(budget.CategoryIDs, id)
	}
	if err := rows.Err(); err != nil {
		return dbError("iterate budget categories", err)
	}
	return nil
}

// GetBudget returns an owner's budget with its categories.
func (q *queries) GetBudget(ctx context.Context, ownerID string, id int64) (*model.Budget, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	b, err := scanBudget(q.q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("budget %d", id)
	}
	if err != nil {
		return nil, dbError("query budget", err)
	}

	if err := q.loadBudgetCategories(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBudgets returns an owner's budgets with their categories.
func (q *queries) ListBudgets(ctx context.Context, ownerID string, activeOnly bool) ([]model.Budget, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := q.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dbError("query budgets", err)
	}

	var budgets []model.Budget
	for rows.Next() {
		b, scanErr := scanBudget(rows)
		if scanErr != nil {
			_ = rows.Close()
			return nil, dbError("scan budget", scanErr)
		}
		budgets = append(budgets, *b)
	}
	iterErr := rows.Err()
	_ = rows.Close()
	if iterErr != nil {
		return nil, dbError("iterate budgets", iterErr)
	}

	// Category links are loaded after the cursor is closed: the pool holds one connection.
	for i := range budgets {
		if err := q.loadBudgetCategories(ctx, &budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// UpdateBudget rewrites a budget and replaces its category links.
func (q *queries) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateNotNil(ctx, budget, "budget"); err != nil {
		return err
	}
	if err := budget.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, amount = ?, period = ?, start_date = ?, end_date = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		budget.Name, budget.Amount, budget.Period, utc(budget.StartDate), utcPtr(budget.EndDate),
		budget.IsActive, now, budget.ID, budget.OwnerID)
	if err != nil {
		return dbError("update budget", err)
	}
	if err := expectOne("update budget", res, common.NotFoundf("budget %d", budget.ID)); err != nil {
		return err
	}

	if err := q.linkBudgetCategories(ctx, budget.ID, budget.CategoryIDs); err != nil {
		return err
	}

	budget.UpdatedAt = now
	return nil
}

// DeleteBudget removes a budget, its category links and its alert records.
func (q *queries) DeleteBudget(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete budget", err)
	}
	return expectOne("delete budget", res, common.NotFoundf("budget %d", id))
}
