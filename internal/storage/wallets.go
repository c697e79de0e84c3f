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
	"github.com/shopspring/decimal"
)

const walletColumns = `id, owner_id, name, currency, balance, archived, version, created_at, updated_at`

func scanWallet(row interface{ Scan(...any) error }) (*model.Wallet, error) {
	var w model.Wallet
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Currency, &w.Balance,
		&w.Archived, &w.Version, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWallet inserts a wallet and fills in its ID and version.
func (q *queries) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	if err := validateNotNil(ctx, wallet, "wallet"); err != nil {
		return err
	}
	if err := common.RequireOwner(wallet.OwnerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO wallets (owner_id, name, currency, balance, archived, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		wallet.OwnerID, wallet.Name, wallet.Currency, wallet.Balance, wallet.Archived, now, now)
	if err != nil {
		return dbError("create wallet", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get wallet id", err)
	}

	wallet.ID = id
	wallet.Version = 1
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	slog.Debug("created wallet", "id", id, "owner", wallet.OwnerID)
	return nil
}

// GetWallet returns an owner's wallet.
func (q *queries) GetWallet(ctx context.Context, ownerID string, id int64) (*model.Wallet, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	row := q.q.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ? AND owner_id = ?`, id, ownerID)
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("wallet %d", id)
	}
	if err != nil {
		return nil, dbError("query wallet", err)
	}
	return w, nil
}

// ListWallets returns an owner's wallets ordered by name.
func (q *queries) ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]model.Wallet, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name, id`

	rows, err := q.q.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dbError("query wallets", err)
	}
	defer func() { _ = rows.Close() }()

	var wallets []model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, dbError("scan wallet", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate wallets", err)
	}
	return wallets, nil
}

// UpdateWalletBalance writes a new balance if the wallet is still at expectedVersion,
// and returns common.ErrConflict otherwise.
func (q *queries) UpdateWalletBalance(ctx context.Context, id int64, balance decimal.Decimal, expectedVersion int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `
		UPDATE wallets SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		balance, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return dbError("update wallet balance", err)
	}

	n, err := rowsAffected("update wallet balance", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return versionMiss(ctx, q, "wallets", id)
	}
	return nil
}

// SetWalletArchived archives or restores a wallet.
func (q *queries) SetWalletArchived(ctx context.Context, ownerID string, id int64, archived bool) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `
		UPDATE wallets SET archived = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		archived, time.Now().UTC(), id, ownerID)
	if err != nil {
		return dbError("archive wallet", err)
	}
	return expectOne("archive wallet", res, common.NotFoundf("wallet %d", id))
}

// DeleteWallet removes a wallet row.
func (q *queries) DeleteWallet(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `DELETE FROM wallets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("delete wallet", err)
	}
	return expectOne("delete wallet", res, common.NotFoundf("wallet %d", id))
}

// SumWalletTransactions returns the signed sum of every transaction in a wallet.
func (q *queries) SumWalletTransactions(ctx context.Context, walletID int64) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	rows, err := q.q.QueryContext(ctx, `SELECT kind, amount FROM transactions WHERE wallet_id = ?`, walletID)
	if err != nil {
		return decimal.Zero, dbError("query wallet transactions", err)
	}
	defer func() { _ = rows.Close() }()

	sum := decimal.Zero
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.Kind, &t.Amount); err != nil {
			return decimal.Zero, dbError("scan wallet transaction", err)
		}
		sum = sum.Add(t.SignedAmount())
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, dbError("iterate wallet transactions", err)
	}
	return sum, nil
}

// CountWalletTransactions returns how many transactions and recurring definitions
// reference a wallet.
func (q *queries) CountWalletTransactions(ctx context.Context, walletID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE wallet_id = ?)
		     + (SELECT COUNT(*) FROM recurring_definitions WHERE wallet_id = ?)`,
		walletID, walletID).Scan(&n)
	if err != nil {
		return 0, dbError("count wallet transactions", err)
	}
	return n, nil
}

// expectOne returns notFound when res touched no rows.
func expectOne(action string, res sql.Result, notFound error) error {
	n, err := rowsAffected(action, res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// versionMiss distinguishes a missing row from a stale version after a guarded update.
func versionMiss(ctx context.Context, q *queries, table string, id int64) error {
	var exists int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return dbError("check "+table, err)
	}
	if exists == 0 {
		return common.NotFoundf("%s %d", table, id)
	}
	return fmt.Errorf("%w: %s %d was modified concurrently", common.ErrConflict, table, id)
}
