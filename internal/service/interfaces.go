// Package service defines the storage contract shared by the ledger engines.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Store is the set of persistence operations available both on the database and
// inside an atomic unit. Owner-scoped lookups return common.ErrNotFound for rows that
// are missing or belong to another owner.
type Store interface {
	// Wallet operations
	CreateWallet(ctx context.Context, wallet *model.Wallet) error
	GetWallet(ctx context.Context, ownerID string, id int64) (*model.Wallet, error)
	ListWallets(ctx context.Context, ownerID string, includeArchived bool) ([]model.Wallet, error)
	UpdateWalletBalance(ctx context.Context, id int64, balance decimal.Decimal, expectedVersion int64) error
	SetWalletArchived(ctx context.Context, ownerID string, id int64, archived bool) error
	DeleteWallet(ctx context.Context, ownerID string, id int64) error
	SumWalletTransactions(ctx context.Context, walletID int64) (decimal.Decimal, error)
	CountWalletTransactions(ctx context.Context, walletID int64) (int, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, ownerID string, id int64) (*model.Category, error)
	FindCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error)
	EnsureCategory(ctx context.Context, ownerID, name string, categoryType model.CategoryType) (*model.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]model.Category, error)
	DeleteCategory(ctx context.Context, ownerID string, id int64) error
	CountCategoryReferences(ctx context.Context, id int64) (int, error)

	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, ownerID string, id int64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID string, id int64) error
	ListTransactions(ctx context.Context, ownerID string, filter model.TransactionFilter) ([]model.Transaction, error)
	GetTransferHalves(ctx context.Context, ownerID, transferID string) ([]model.Transaction, error)
	SumExpenses(ctx context.Context, ownerID string, categoryIDs []int64, start, end time.Time) (decimal.Decimal, error)

	// Recurring definition operations
	CreateRecurring(ctx context.Context, def *model.RecurringDefinition) error
	GetRecurring(ctx context.Context, ownerID string, id int64) (*model.RecurringDefinition, error)
	GetRecurringByID(ctx context.Context, id int64) (*model.RecurringDefinition, error)
	ListRecurring(ctx context.Context, ownerID string) ([]model.RecurringDefinition, error)
	ListDueRecurring(ctx context.Context, now time.Time) ([]model.RecurringDefinition, error)
	UpdateRecurring(ctx context.Context, def *model.RecurringDefinition) error
	AdvanceRecurring(ctx context.Context, id int64, expectedNext, next, lastRunAt time.Time, active bool) error
	DeleteRecurring(ctx context.Context, ownerID string, id int64) error

	// Loan operations
	CreateLoan(ctx context.Context, loan *model.Loan) error
	GetLoan(ctx context.Context, ownerID string, id int64) (*model.Loan, error)
	ListLoans(ctx context.Context, ownerID string) ([]model.Loan, error)
	UpdateLoan(ctx context.Context, loan *model.Loan) error
	DeleteLoan(ctx context.Context, ownerID string, id int64) error
	InsertRepayment(ctx context.Context, repayment *model.Repayment) error
	GetRepayment(ctx context.Context, loanID, id int64) (*model.Repayment, error)
	ListRepayments(ctx context.Context, loanID int64) ([]model.Repayment, error)
	DeleteRepayment(ctx context.Context, loanID, id int64) error
	SumRepayments(ctx context.Context, loanID int64) (decimal.Decimal, error)

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, ownerID string, id int64) (*model.Budget, error)
	ListBudgets(ctx context.Context, ownerID string, activeOnly bool) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, ownerID string, id int64) error

	// Notification operations
	InsertNotification(ctx context.Context, notification *model.Notification) error
	ListNotifications(ctx context.Context, ownerID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, ownerID string, id int64) error
	MarkAllNotificationsRead(ctx context.Context, ownerID string) (int, error)
	InsertBudgetAlert(ctx context.Context, alert *model.BudgetAlert) (bool, error)
}

// Tx is an atomic unit. Everything written through it becomes visible on Commit or
// not at all.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Storage is the persistence layer.
type Storage interface {
	Store
	BeginTx(ctx context.Context) (Tx, error)
	Migrate(ctx context.Context) error
	Close() error
}
