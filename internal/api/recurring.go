package api

import (
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/recurring"
	"github.com/shopspring/decimal"
)

type createRecurringRequest struct {
	StartDate   Date            `json:"start_date"`
	EndDate     *Date           `json:"end_date"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Frequency   string          `json:"frequency"`
	Description string          `json:"description"`
	WalletID    int64           `json:"wallet_id"`
	CategoryID  int64           `json:"category_id"`
}

type updateRecurringRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Frequency   *string          `json:"frequency"`
	EndDate     *Date            `json:"end_date"`
	WalletID    *int64           `json:"wallet_id"`
	CategoryID  *int64           `json:"category_id"`
	ClearEnd    bool             `json:"clear_end_date"`
}

func (h *Handler) listRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	defs, err := h.svc.Recurring.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]recurringView, len(defs))
	for i := range defs {
		views[i] = newRecurringView(&defs[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createRecurring(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRecurringRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	frequency, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, err)
		return
	}

	def, err := h.svc.Recurring.Create(r.Context(), recurring.DefinitionInput{
		OwnerID:     owner,
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
		Kind:        kind,
		Amount:      req.Amount,
		Frequency:   frequency,
		Description: req.Description,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.ptr(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRecurringView(def))
}

func (h *Handler) getRecurring(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	def, err := h.svc.Recurring.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(def))
}

func (h *Handler) updateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateRecurringRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	edit := recurring.DefinitionEdit{
		Amount:      req.Amount,
		Description: req.Description,
		EndDate:     req.EndDate.ptr(),
		WalletID:    req.WalletID,
		CategoryID:  req.CategoryID,
		ClearEnd:    req.ClearEnd,
	}
	if req.Frequency != nil {
		frequency, err := model.ParseFrequency(*req.Frequency)
		if err != nil {
			writeError(w, err)
			return
		}
		edit.Frequency = &frequency
	}

	def, err := h.svc.Recurring.Update(r.Context(), owner, id, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(def))
}

func (h *Handler) deleteRecurring(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Recurring.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pauseRecurring(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	def, err := h.svc.Recurring.Pause(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(def))
}

func (h *Handler) resumeRecurring(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	def, err := h.svc.Recurring.Resume(r.Context(), owner, id, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecurringView(def))
}
