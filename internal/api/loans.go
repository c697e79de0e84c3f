package api

import (
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/loan"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type createLoanRequest struct {
	BorrowedAt   Date            `json:"borrowed_at"`
	DueDate      *Date           `json:"due_date"`
	Principal    decimal.Decimal `json:"principal"`
	BorrowerName string          `json:"borrower_name"`
	Notes        string          `json:"notes"`
}

type updateLoanRequest struct {
	BorrowedAt   *Date            `json:"borrowed_at"`
	DueDate      *Date            `json:"due_date"`
	Principal    *decimal.Decimal `json:"principal"`
	BorrowerName *string          `json:"borrower_name"`
	Notes        *string          `json:"notes"`
	ClearDueDate bool             `json:"clear_due_date"`
}

type repaymentRequest struct {
	PaidAt Date            `json:"paid_at"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var status model.LoanStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		if status, err = model.ParseLoanStatus(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	loans, err := h.svc.Loans.List(r.Context(), owner, status)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]loanView, len(loans))
	for i := range loans {
		views[i] = newLoanView(&loans[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createLoanRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	l, err := h.svc.Loans.Create(r.Context(), loan.LoanInput{
		OwnerID:      owner,
		BorrowerName: req.BorrowerName,
		Principal:    req.Principal,
		BorrowedAt:   req.BorrowedAt.Time,
		DueDate:      req.DueDate.ptr(),
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLoanView(l))
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	l, err := h.svc.Loans.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(l))
}

func (h *Handler) updateLoan(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateLoanRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	l, err := h.svc.Loans.Update(r.Context(), owner, id, loan.LoanEdit{
		BorrowedAt:   req.BorrowedAt.ptr(),
		DueDate:      req.DueDate.ptr(),
		Principal:    req.Principal,
		BorrowerName: req.BorrowerName,
		Notes:        req.Notes,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(l))
}

func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Loans.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addRepayment(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req repaymentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	paidAt := req.PaidAt.Time
	if paidAt.IsZero() {
		paidAt = h.now()
	}

	l, err := h.svc.Loans.AddRepayment(r.Context(), loan.RepaymentInput{
		OwnerID: owner,
		LoanID:  id,
		Amount:  req.Amount,
		PaidAt:  paidAt,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLoanView(l))
}

func (h *Handler) deleteRepayment(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	repaymentID, err := pathID(r, "repaymentID")
	if err != nil {
		writeError(w, err)
		return
	}

	l, err := h.svc.Loans.DeleteRepayment(r.Context(), owner, id, repaymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoanView(l))
}
