package api

import (
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/budget"
	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type createBudgetRequest struct {
	StartDate   Date            `json:"start_date"`
	EndDate     *Date           `json:"end_date"`
	Amount      decimal.Decimal `json:"amount"`
	Name        string          `json:"name"`
	Period      string          `json:"period"`
	CategoryIDs []int64         `json:"category_ids"`
}

type updateBudgetRequest struct {
	EndDate     *Date            `json:"end_date"`
	Amount      *decimal.Decimal `json:"amount"`
	Name        *string          `json:"name"`
	Period      *string          `json:"period"`
	IsActive    *bool            `json:"is_active"`
	CategoryIDs []int64          `json:"category_ids"`
	ClearEnd    bool             `json:"clear_end_date"`
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	budgets, err := h.svc.Budgets.List(r.Context(), owner, queryBool(r, "active"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]budgetView, len(budgets))
	for i := range budgets {
		views[i] = newBudgetView(&budgets[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createBudgetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	period, err := model.ParseBudgetPeriod(req.Period)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.svc.Budgets.Create(r.Context(), budget.BudgetInput{
		OwnerID:     owner,
		Name:        req.Name,
		Amount:      req.Amount,
		Period:      period,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.ptr(),
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBudgetView(b))
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.svc.Budgets.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(b))
}

func (h *Handler) updateBudget(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateBudgetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	edit := budget.BudgetEdit{
		EndDate:     req.EndDate.ptr(),
		Amount:      req.Amount,
		Name:        req.Name,
		IsActive:    req.IsActive,
		CategoryIDs: req.CategoryIDs,
		ClearEnd:    req.ClearEnd,
	}
	if req.Period != nil {
		period, err := model.ParseBudgetPeriod(*req.Period)
		if err != nil {
			writeError(w, err)
			return
		}
		edit.Period = &period
	}

	b, err := h.svc.Budgets.Update(r.Context(), owner, id, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetView(b))
}

func (h *Handler) deleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Budgets.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) budgetProgress(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	progress, err := h.svc.Budgets.Progress(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProgressView(progress))
}

func (h *Handler) evaluateBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	evals, err := h.svc.Budgets.Evaluate(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]evaluationView, len(evals))
	for i := range evals {
		views[i] = newEvaluationView(&evals[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	notes, err := h.svc.Notifications.List(r.Context(), owner, queryBool(r, "unread"), int(limit))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]notificationView, len(notes))
	for i := range notes {
		views[i] = newNotificationView(&notes[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Notifications.MarkRead(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	n, err := h.svc.Notifications.MarkAllRead(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}
