package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, owner_id, wallet_id, category_id, kind, amount, date,
	description, notes, transfer_id, recurring_id, version, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var (
		t           model.Transaction
		transferID  sql.NullString
		recurringID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.WalletID, &t.CategoryID, &t.Kind, &t.Amount, &t.Date,
		&t.Description, &t.Notes, &transferID, &recurringID, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Date = t.Date.UTC()
	t.TransferID = transferID.String
	if recurringID.Valid {
		id := recurringID.Int64
		t.RecurringID = &id
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// InsertTransaction inserts a ledger row. It does not touch wallet balances.
func (q *queries) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateNotNil(ctx, txn, "transaction"); err != nil {
		return err
	}
	if err := txn.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	txn.Date = model.Day(txn.Date)
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, wallet_id, category_id, kind, amount, date,
			description, notes, transfer_id, recurring_id, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		txn.OwnerID, txn.WalletID, txn.CategoryID, txn.Kind, txn.Amount, txn.Date,
		txn.Description, txn.Notes, nullString(txn.TransferID), nullInt64(txn.RecurringID), now, now)
	if err != nil {
		return dbError("insert transaction", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get transaction id", err)
	}

	txn.ID = id
	txn.Version = 1
	txn.CreatedAt = now
	txn.UpdatedAt = now

	slog.Debug("inserted transaction", "id", id, "wallet", txn.WalletID, "kind", txn.Kind, "amount", txn.Amount.String())
	return nil
}

// GetTransaction returns an owner's transaction.
func (q *queries) GetTransaction(ctx context.Context, ownerID string, id int64) (*model.Transaction, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	t, err := scanTransaction(q.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("transaction %d", id)
	}
	if err != nil {
		return nil, dbError("query transaction", err)
	}
	return t, nil
}

// UpdateTransaction rewrites a row if it is still at txn.Version, then bumps the
// version. A stale version returns common.ErrConflict.
func (q *queries) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateNotNil(ctx, txn, "transaction"); err != nil {
		return err
	}
	if err := txn.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	txn.Date = model.Day(txn.Date)
	res, err := q.q.ExecContext(ctx, `
		UPDATE transactions
		SET wallet_id = ?, category_id = ?, kind = ?, amount = ?, date = ?,
			description = ?, notes = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND owner_id = ? AND version = ?`,
		txn.WalletID, txn.CategoryID, txn.Kind, txn.Amount, txn.Date,
		txn.Description, txn.Notes, now, txn.ID, txn.OwnerID, txn.Version)
	if err != nil {
		return dbError("update transaction", err)
	}

	n, err := rowsAffected("update transaction", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return versionMiss(ctx, q, "transactions", txn.ID)
	}

	txn.Version++
	txn.UpdatedAt = now
	return nil
}

// DeleteTransaction removes a ledger row. It does not touch wallet balances.
func (q *queries) DeleteTransaction(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete transaction", err)
	}
	return expectOne("delete transaction", res, common.NotFoundf("transaction %d", id))
}

// ListTransactions returns an owner's transactions, newest first. Start and End are
// inclusive days.
func (q *queries) ListTransactions(ctx context.Context, ownerID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if filter.Start != nil {
		where = append(where, "date >= ?")
		args = append(args, model.Day(*filter.Start))
	}
	if filter.End != nil {
		where = append(where, "date < ?")
		args = append(args, model.Day(*filter.End).AddDate(0, 0, 1))
	}
	if filter.WalletID != 0 {
		where = append(where, "wallet_id = ?")
		args = append(args, filter.WalletID)
	}
	if filter.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	return q.collectTransactions(ctx, query, args...)
}

// GetTransferHalves returns both halves of a transfer, outgoing half first.
func (q *queries) GetTransferHalves(ctx context.Context, ownerID, transferID string) ([]model.Transaction, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := validateString(transferID, "transferID"); err != nil {
		return nil, err
	}

	halves, err := q.collectTransactions(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? AND transfer_id = ?
		ORDER BY CASE kind WHEN 'TRANSFER_OUT' THEN 0 ELSE 1 END, id`,
		ownerID, transferID)
	if err != nil {
		return nil, err
	}
	if len(halves) == 0 {
		return nil, common.NotFoundf("transfer %s", transferID)
	}
	return halves, nil
}

// SumExpenses totals EXPENSE transactions in the given categories dated in [start, end).
func (q *queries) SumExpenses(ctx context.Context, ownerID string, categoryIDs []int64, start, end time.Time) (decimal.Decimal, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return decimal.Zero, err
	}
	if len(categoryIDs) == 0 {
		return decimal.Zero, nil
	}

	args := []any{ownerID, model.KindExpense, utc(start), utc(end)}
	for _, id := range categoryIDs {
		args = append(args, id)
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE owner_id = ? AND kind = ? AND date >= ? AND date < ?
		AND category_id IN (`+placeholders(len(categoryIDs))+`)`, args...)
	if err != nil {
		return decimal.Zero, dbError("query expenses", err)
	}
	defer func() { _ = rows.Close() }()

	sum := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, dbError("scan expense", err)
		}
		sum = sum.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, dbError("iterate expenses", err)
	}
	return sum, nil
}

func (q *queries) collectTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, dbError("scan transaction", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate transactions", err)
	}
	return txns, nil
}
