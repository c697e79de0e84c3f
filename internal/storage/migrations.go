package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// Monetary columns are TEXT holding exact decimal strings and are only ever summed in Go.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Wallets, categories and the transaction ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS wallets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL,
					currency TEXT NOT NULL,
					balance TEXT NOT NULL DEFAULT '0',
					archived BOOLEAN NOT NULL DEFAULT 0,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_wallets_owner ON wallets(owner_id)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('INCOME', 'EXPENSE', 'TRANSFER')),
					created_at DATETIME NOT NULL,
					UNIQUE(owner_id, name, type)
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					wallet_id INTEGER NOT NULL REFERENCES wallets(id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					kind TEXT NOT NULL CHECK (kind IN ('INCOME', 'EXPENSE', 'TRANSFER_OUT', 'TRANSFER_IN')),
					amount TEXT NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					transfer_id TEXT,
					recurring_id INTEGER,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transactions_owner_date ON transactions(owner_id, date)`,
				`CREATE INDEX idx_transactions_wallet ON transactions(wallet_id)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
				`CREATE INDEX idx_transactions_transfer ON transactions(transfer_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Recurring definitions, loans and repayments",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS recurring_definitions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					wallet_id INTEGER NOT NULL REFERENCES wallets(id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					kind TEXT NOT NULL CHECK (kind IN ('INCOME', 'EXPENSE')),
					amount TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					frequency TEXT NOT NULL,
					start_date DATETIME NOT NULL,
					next_run_date DATETIME NOT NULL,
					end_date DATETIME,
					last_run_at DATETIME,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_recurring_due ON recurring_definitions(is_active, next_run_date)`,

				`CREATE TABLE IF NOT EXISTS loans (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					borrower_name TEXT NOT NULL,
					principal TEXT NOT NULL,
					outstanding TEXT NOT NULL,
					status TEXT NOT NULL,
					borrowed_at DATETIME NOT NULL,
					due_date DATETIME,
					notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_loans_owner ON loans(owner_id)`,

				`CREATE TABLE IF NOT EXISTS repayments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					loan_id INTEGER NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
					owner_id TEXT NOT NULL,
					amount TEXT NOT NULL,
					paid_at DATETIME NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_repayments_loan ON repayments(loan_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Budgets, notifications and budget alert dedup",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS budgets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL,
					amount TEXT NOT NULL,
					period TEXT NOT NULL,
					start_date DATETIME NOT NULL,
					end_date DATETIME,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_budgets_owner ON budgets(owner_id)`,

				`CREATE TABLE IF NOT EXISTS budget_categories (
					budget_id INTEGER NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					PRIMARY KEY (budget_id, category_id)
				)`,

				`CREATE TABLE IF NOT EXISTS notifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					type TEXT NOT NULL,
					action_url TEXT NOT NULL DEFAULT '',
					is_read BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_notifications_owner ON notifications(owner_id, is_read)`,

				`CREATE TABLE IF NOT EXISTS budget_alerts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT NOT NULL,
					budget_id INTEGER NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
					kind TEXT NOT NULL,
					window_start DATETIME NOT NULL,
					notification_id INTEGER REFERENCES notifications(id) ON DELETE SET NULL,
					created_at DATETIME NOT NULL,
					UNIQUE(budget_id, kind, window_start)
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
