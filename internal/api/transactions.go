package api

import (
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	WalletID    int64           `json:"wallet_id"`
	CategoryID  int64           `json:"category_id"`
}

type editTransactionRequest struct {
	Date        *Date            `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Kind        *string          `json:"kind"`
	Description *string          `json:"description"`
	Notes       *string          `json:"notes"`
	WalletID    *int64           `json:"wallet_id"`
	CategoryID  *int64           `json:"category_id"`
}

type transferRequest struct {
	Date         Date            `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	FromWalletID int64           `json:"from_wallet_id"`
	ToWalletID   int64           `json:"to_wallet_id"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := h.svc.Ledger.ListTransactions(r.Context(), owner, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews(txns))
}

func transactionFilter(r *http.Request) (model.TransactionFilter, error) {
	var filter model.TransactionFilter
	var err error

	if filter.WalletID, err = queryInt(r, "wallet_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryInt(r, "category_id"); err != nil {
		return filter, err
	}
	if filter.Start, err = queryDate(r, "start"); err != nil {
		return filter, err
	}
	if filter.End, err = queryDate(r, "end"); err != nil {
		return filter, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return filter, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return filter, err
	}
	filter.Limit, filter.Offset = int(limit), int(offset)

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := model.TransactionKind(raw)
		if !kind.Valid() {
			return filter, errInvalidKind(raw)
		}
		filter.Kind = kind
	}
	return filter, nil
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createTransactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.svc.Ledger.CreateTransaction(r.Context(), ledger.TransactionInput{
		OwnerID:     owner,
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
		Kind:        kind,
		Amount:      req.Amount,
		Date:        req.Date.Time,
		Description: req.Description,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(txn))
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.svc.Ledger.GetTransaction(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(txn))
}

func (h *Handler) editTransaction(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req editTransactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	edit := ledger.TransactionEdit{
		Date:        req.Date.ptr(),
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
	}
	if req.Kind != nil {
		kind, err := model.ParseKind(*req.Kind)
		if err != nil {
			writeError(w, err)
			return
		}
		edit.Kind = &kind
	}

	txn, err := h.svc.Ledger.EditTransaction(r.Context(), owner, id, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(txn))
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Ledger.DeleteTransaction(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req transferRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Ledger.Transfer(r.Context(), ledger.TransferInput{
		OwnerID:      owner,
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       req.Amount,
		Date:         req.Date.Time,
		Description:  req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransferView(result))
}

func (h *Handler) getTransfer(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	halves, err := h.svc.Ledger.GetTransfer(r.Context(), owner, mux.Vars(r)["transferID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionViews(halves))
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Ledger.DeleteTransfer(r.Context(), owner, mux.Vars(r)["transferID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
