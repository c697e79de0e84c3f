package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const categoryColumns = `id, owner_id, name, type, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category. A second category with the same owner, name and
// type is rejected with common.ErrDuplicateEntry.
func (q *queries) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateNotNil(ctx, category, "category"); err != nil {
		return err
	}
	if err := common.RequireOwner(category.OwnerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO categories (owner_id, name, type, created_at)
		VALUES (?, ?, ?, ?)`,
		category.OwnerID, strings.TrimSpace(category.Name), category.Type, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q (%s) already exists", common.ErrDuplicateEntry, category.Name, category.Type)
		}
		return dbError("create category", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get category id", err)
	}

	category.ID = id
	category.Name = strings.TrimSpace(category.Name)
	category.CreatedAt = now

	slog.Debug("created category", "id", id, "name", category.Name, "type", category.Type)
	return nil
}

// GetCategory returns an owner's category.
func (q *queries) GetCategory(ctx context.Context, ownerID string, id int64) (*model.Category, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	c, err := scanCategory(q.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("category %d", id)
	}
	if err != nil {
		return nil, dbError("query category", err)
	}
	return c, nil
}

// FindCategory looks a category up by name and type.
func (q *queries) FindCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	c, err := scanCategory(q.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE owner_id = ? AND name = ? AND type = ?`,
		ownerID, strings.TrimSpace(name), categoryType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("category %q (%s)", name, categoryType)
	}
	if err != nil {
		return nil, dbError("query category", err)
	}
	return c, nil
}

// EnsureCategory returns the named category, creating it if it does not exist.
func (q *queries) EnsureCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error) {
	c, err := q.FindCategory(ctx, ownerID, name, categoryType)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	c = &model.Category{OwnerID: ownerID, Name: name, Type: categoryType}
	if err := q.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("created missing category", "owner", ownerID, "name", name, "type", categoryType)
	return c, nil
}

// ListCategories returns an owner's categories ordered by type then name.
func (q *queries) ListCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	rows, err := q.q.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY type, name`, ownerID)
	if err != nil {
		return nil, dbError("query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, dbError("scan category", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate categories", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// DeleteCategory removes a category row.
func (q *queries) DeleteCategory(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete category", err)
	}
	return expectOne("delete category", res, common.NotFoundf("category %d", id))
}

// CountCategoryReferences returns how many transactions, recurring definitions and
// budgets use a category.
func (q *queries) CountCategoryReferences(ctx context.Context, id int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
		     + (SELECT COUNT(*) FROM recurring_definitions WHERE category_id = ?)
		     + (SELECT COUNT(*) FROM budget_categories WHERE category_id = ?)`,
		id, id, id).Scan(&n)
	if err != nil {
		return 0, dbError("count category references", err)
	}
	return n, nil
}
