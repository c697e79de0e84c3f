package api

import (
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/model"
)

type createWalletRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (h *Handler) listWallets(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	wallets, err := h.svc.Ledger.ListWallets(r.Context(), owner, queryBool(r, "archived"))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]walletView, len(wallets))
	for i := range wallets {
		views[i] = newWalletView(&wallets[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createWallet(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createWalletRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	wallet, err := h.svc.Ledger.CreateWallet(r.Context(), owner, req.Name, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newWalletView(wallet))
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	wallet, err := h.svc.Ledger.GetWallet(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(wallet))
}

func (h *Handler) deleteWallet(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Ledger.DeleteWallet(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) archiveWallet(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *Handler) restoreWallet(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if archived {
		err = h.svc.Ledger.ArchiveWallet(r.Context(), owner, id)
	} else {
		err = h.svc.Ledger.RestoreWallet(r.Context(), owner, id)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	wallet, err := h.svc.Ledger.GetWallet(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(wallet))
}

func (h *Handler) reconcileWallet(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.svc.Ledger.Reconcile(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReconciliationView(rec))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	categories, err := h.svc.Ledger.ListCategories(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i := range categories {
		views[i] = newCategoryView(&categories[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCategoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	categoryType, err := model.ParseCategoryType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := h.svc.Ledger.CreateCategory(r.Context(), owner, req.Name, categoryType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryView(category))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Ledger.DeleteCategory(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ownerAndID(r *http.Request, name string) (string, int64, error) {
	owner, err := identity.OwnerFrom(r.Context())
	if err != nil {
		return "", 0, err
	}
	id, err := pathID(r, name)
	if err != nil {
		return "", 0, err
	}
	return owner, id, nil
}
