package api

import (
	"time"

	"github.com/Veraticus/spice-ledger/internal/budget"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

func dayPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := day(*t)
	return &s
}

type walletView struct {
	CreatedAt time.Time       `json:"created_at"`
	Balance   decimal.Decimal `json:"balance"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	ID        int64           `json:"id"`
	Archived  bool            `json:"archived"`
}

func newWalletView(w *model.Wallet) walletView {
	return walletView{
		ID:        w.ID,
		Name:      w.Name,
		Currency:  w.Currency,
		Balance:   w.Balance,
		Archived:  w.Archived,
		CreatedAt: w.CreatedAt,
	}
}

type reconciliationView struct {
	Cached     decimal.Decimal `json:"cached"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"`
	WalletID   int64           `json:"wallet_id"`
	Consistent bool            `json:"consistent"`
}

func newReconciliationView(r *ledger.Reconciliation) reconciliationView {
	return reconciliationView{
		WalletID:   r.Wallet.ID,
		Cached:     r.Cached,
		Computed:   r.Computed,
		Difference: r.Difference,
		Consistent: r.Consistent(),
	}
}

type categoryView struct {
	Name string             `json:"name"`
	Type model.CategoryType `json:"type"`
	ID   int64              `json:"id"`
}

func newCategoryView(c *model.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Type: c.Type}
}

type transactionView struct {
	RecurringID *int64                `json:"recurring_id,omitempty"`
	Amount      decimal.Decimal       `json:"amount"`
	Date        string                `json:"date"`
	Kind        model.TransactionKind `json:"kind"`
	TransferID  string                `json:"transfer_id,omitempty"`
	Description string                `json:"description"`
	Notes       string                `json:"notes,omitempty"`
	ID          int64                 `json:"id"`
	WalletID    int64                 `json:"wallet_id"`
	CategoryID  int64                 `json:"category_id"`
}

func newTransactionView(t *model.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		WalletID:    t.WalletID,
		CategoryID:  t.CategoryID,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Date:        day(t.Date),
		Description: t.Description,
		Notes:       t.Notes,
		TransferID:  t.TransferID,
		RecurringID: t.RecurringID,
	}
}

func newTransactionViews(txns []model.Transaction) []transactionView {
	views := make([]transactionView, len(txns))
	for i := range txns {
		views[i] = newTransactionView(&txns[i])
	}
	return views
}

type transferView struct {
	TransferID string          `json:"transfer_id"`
	Out        transactionView `json:"out"`
	In         transactionView `json:"in"`
}

func newTransferView(r *ledger.TransferResult) transferView {
	return transferView{
		TransferID: r.TransferID,
		Out:        newTransactionView(&r.Out),
		In:         newTransactionView(&r.In),
	}
}

type recurringView struct {
	EndDate     *string               `json:"end_date,omitempty"`
	LastRunAt   *time.Time            `json:"last_run_at,omitempty"`
	Amount      decimal.Decimal       `json:"amount"`
	StartDate   string                `json:"start_date"`
	NextRunDate string                `json:"next_run_date"`
	Kind        model.TransactionKind `json:"kind"`
	Frequency   model.Frequency       `json:"frequency"`
	Description string                `json:"description"`
	ID          int64                 `json:"id"`
	WalletID    int64                 `json:"wallet_id"`
	CategoryID  int64                 `json:"category_id"`
	IsActive    bool                  `json:"is_active"`
}

func newRecurringView(d *model.RecurringDefinition) recurringView {
	return recurringView{
		ID:          d.ID,
		WalletID:    d.WalletID,
		CategoryID:  d.CategoryID,
		Kind:        d.Kind,
		Amount:      d.Amount,
		Frequency:   d.Frequency,
		Description: d.Description,
		StartDate:   day(d.StartDate),
		NextRunDate: day(d.NextRunDate),
		EndDate:     dayPtr(d.EndDate),
		LastRunAt:   d.LastRunAt,
		IsActive:    d.IsActive,
	}
}

type repaymentView struct {
	Amount decimal.Decimal `json:"amount"`
	PaidAt string          `json:"paid_at"`
	Notes  string          `json:"notes,omitempty"`
	ID     int64           `json:"id"`
}

type loanView struct {
	DueDate      *string          `json:"due_date,omitempty"`
	Principal    decimal.Decimal  `json:"principal"`
	Outstanding  decimal.Decimal  `json:"outstanding"`
	BorrowedAt   string           `json:"borrowed_at"`
	BorrowerName string           `json:"borrower_name"`
	Notes        string           `json:"notes,omitempty"`
	Status       model.LoanStatus `json:"status"`
	Repayments   []repaymentView  `json:"repayments,omitempty"`
	ID           int64            `json:"id"`
}

func newLoanView(l *model.Loan) loanView {
	view := loanView{
		ID:           l.ID,
		BorrowerName: l.BorrowerName,
		Principal:    l.Principal,
		Outstanding:  l.Outstanding,
		Status:       l.Status,
		BorrowedAt:   day(l.BorrowedAt),
		DueDate:      dayPtr(l.DueDate),
		Notes:        l.Notes,
	}
	for _, r := range l.Repayments {
		view.Repayments = append(view.Repayments, repaymentView{
			ID:     r.ID,
			Amount: r.Amount,
			PaidAt: day(r.PaidAt),
			Notes:  r.Notes,
		})
	}
	return view
}

type budgetView struct {
	EndDate     *string            `json:"end_date,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
	Name        string             `json:"name"`
	Period      model.BudgetPeriod `json:"period"`
	StartDate   string             `json:"start_date"`
	CategoryIDs []int64            `json:"category_ids"`
	ID          int64              `json:"id"`
	IsActive    bool               `json:"is_active"`
}

func newBudgetView(b *model.Budget) budgetView {
	return budgetView{
		ID:          b.ID,
		Name:        b.Name,
		Amount:      b.Amount,
		Period:      b.Period,
		StartDate:   day(b.StartDate),
		EndDate:     dayPtr(b.EndDate),
		CategoryIDs: b.CategoryIDs,
		IsActive:    b.IsActive,
	}
}

type progressView struct {
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percent_used"`
	WindowStart string          `json:"window_start"`
	WindowEnd   string          `json:"window_end"`
	Budget      budgetView      `json:"budget"`
}

func newProgressView(p *model.BudgetProgress) progressView {
	return progressView{
		Budget:      newBudgetView(&p.Budget),
		WindowStart: day(p.Window.Start),
		WindowEnd:   day(p.Window.LastDay()),
		Spent:       p.Spent,
		Remaining:   p.Remaining,
		PercentUsed: p.PercentUsed.Round(2),
	}
}

type evaluationView struct {
	Alert          model.AlertKind `json:"alert,omitempty"`
	NotificationID int64           `json:"notification_id,omitempty"`
	Progress       progressView    `json:"progress"`
	Raised         bool            `json:"raised"`
}

func newEvaluationView(e *budget.Evaluation) evaluationView {
	view := evaluationView{
		Progress: newProgressView(&e.Progress),
		Alert:    e.Alert,
		Raised:   e.Raised,
	}
	if e.Notification != nil {
		view.NotificationID = e.Notification.ID
	}
	return view
}

type notificationView struct {
	CreatedAt time.Time              `json:"created_at"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      model.NotificationType `json:"type"`
	ActionURL string                 `json:"action_url,omitempty"`
	ID        int64                  `json:"id"`
	IsRead    bool                   `json:"is_read"`
}

func newNotificationView(n *model.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		ActionURL: n.ActionURL,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
