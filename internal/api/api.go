// Package api serves the ledger engines over HTTP. Every route except /healthz
// requires a bearer token naming the owner.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/budget"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/identity"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/loan"
	"github.com/Veraticus/spice-ledger/internal/notify"
	"github.com/Veraticus/spice-ledger/internal/recurring"
	"github.com/gorilla/mux"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Services bundles the engines the handlers call.
type Services struct {
	Ledger        *ledger.Ledger
	Recurring     *recurring.Scheduler
	Loans         *loan.Service
	Budgets       *budget.Service
	Notifications *notify.Service
}

// Handler holds the dependencies of every route.
type Handler struct {
	svc    Services
	issuer *identity.Issuer
	now    func() time.Time
}

// NewHandler creates a Handler. now defaults to time.Now.
func NewHandler(svc Services, issuer *identity.Issuer, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{svc: svc, issuer: issuer, now: now}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(h.logRequests, h.authenticate)

	api.HandleFunc("/wallets", h.listWallets).Methods(http.MethodGet)
	api.HandleFunc("/wallets", h.createWallet).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}", h.getWallet).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id:[0-9]+}", h.deleteWallet).Methods(http.MethodDelete)
	api.HandleFunc("/wallets/{id:[0-9]+}/archive", h.archiveWallet).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}/restore", h.restoreWallet).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}/reconcile", h.reconcileWallet).Methods(http.MethodGet)

	api.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.createCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id:[0-9]+}", h.deleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}", h.getTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id:[0-9]+}", h.editTransaction).Methods(http.MethodPatch)
	api.HandleFunc("/transactions/{id:[0-9]+}", h.deleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/transfers", h.createTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transfers/{transferID}", h.getTransfer).Methods(http.MethodGet)
	api.HandleFunc("/transfers/{transferID}", h.deleteTransfer).Methods(http.MethodDelete)

	api.HandleFunc("/recurring", h.listRecurring).Methods(http.MethodGet)
	api.HandleFunc("/recurring", h.createRecurring).Methods(http.MethodPost)
	api.HandleFunc("/recurring/{id:[0-9]+}", h.getRecurring).Methods(http.MethodGet)
	api.HandleFunc("/recurring/{id:[0-9]+}", h.updateRecurring).Methods(http.MethodPatch)
	api.HandleFunc("/recurring/{id:[0-9]+}", h.deleteRecurring).Methods(http.MethodDelete)
	api.HandleFunc("/recurring/{id:[0-9]+}/pause", h.pauseRecurring).Methods(http.MethodPost)
	api.HandleFunc("/recurring/{id:[0-9]+}/resume", h.resumeRecurring).Methods(http.MethodPost)

	api.HandleFunc("/loans", h.listLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", h.createLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id:[0-9]+}", h.getLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id:[0-9]+}", h.updateLoan).Methods(http.MethodPatch)
	api.HandleFunc("/loans/{id:[0-9]+}", h.deleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{id:[0-9]+}/repayments", h.addRepayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id:[0-9]+}/repayments/{repaymentID:[0-9]+}", h.deleteRepayment).Methods(http.MethodDelete)

	api.HandleFunc("/budgets", h.listBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", h.createBudget).Methods(http.MethodPost)
	api.HandleFunc("/budgets/evaluate", h.evaluateBudgets).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id:[0-9]+}", h.getBudget).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id:[0-9]+}", h.updateBudget).Methods(http.MethodPatch)
	api.HandleFunc("/budgets/{id:[0-9]+}", h.deleteBudget).Methods(http.MethodDelete)
	api.HandleFunc("/budgets/{id:[0-9]+}/progress", h.budgetProgress).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read", h.markAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", h.markRead).Methods(http.MethodPost)

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := identity.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, err)
			return
		}

		owner, err := h.issuer.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), owner)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Kind: common.Kind(err)}
	if status == http.StatusInternalServerError {
		common.LogError(err, "Request failed", nil)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.Validationf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, common.Validationf("invalid %s %q", name, raw)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Date is a calendar day in request bodies, written as YYYY-MM-DD or RFC 3339.
type Date struct {
	time.Time
}

// UnmarshalJSON parses a quoted date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, common.Validationf("invalid date %q, expected YYYY-MM-DD", s)
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func errInvalidKind(raw string) error {
	return common.Validationf("unknown transaction kind %q", raw)
}
