package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrlite/internal/domain/auth"
	"hrlite/internal/domain/payroll"
	"hrlite/internal/money"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
	"hrlite/internal/transport/http/shared"
)

type Handler struct {
	Store    *payroll.Store
	Engine   *payroll.Engine
	Resolver *auth.Resolver
}

func NewHandler(store *payroll.Store, engine *payroll.Engine, resolver *auth.Resolver) *Handler {
	return &Handler{Store: store, Engine: engine, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollView, h.Resolver)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Resolver)).Post("/runs", h.handleRun)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermPayrollView, h.Resolver))
			r.Get("/", h.handleGetRun)
			r.Get("/items", h.handleListItems)
		})
		r.With(middleware.RequirePermission(auth.PermPayrollView, h.Resolver)).Get("/items/{itemID}/payslip", h.handlePayslip)
	})
	r.With(middleware.RequirePermission(auth.PermPayrollSalaryEdit, h.Resolver)).Put("/allowances/{entryID}/active", h.handleSetAllowanceActive)
	r.With(middleware.RequirePermission(auth.PermPayrollSalaryEdit, h.Resolver)).Put("/deductions/{entryID}/active", h.handleSetDeductionActive)
}

// RegisterEmployeeRoutes hangs the pay-related routes off an existing
// /employees/{employeeID} subtree; it must not mount its own.
func (h *Handler) RegisterEmployeeRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermPayrollSalaryEdit, h.Resolver)).Put("/salary", h.handleUpdateSalary)
	r.Route("/allowances", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollView, h.Resolver)).Get("/", h.handleListAllowances)
		r.With(middleware.RequirePermission(auth.PermPayrollSalaryEdit, h.Resolver)).Post("/", h.handleCreateAllowance)
	})
	r.Route("/deductions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollView, h.Resolver)).Get("/", h.handleListDeductions)
		r.With(middleware.RequirePermission(auth.PermPayrollSalaryEdit, h.Resolver)).Post("/", h.handleCreateDeduction)
	})
}

type runRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	Notes       string `json:"notes"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read request payload", middleware.GetRequestID(r.Context()))
		return
	}

	var payload runRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	start, err := shared.ParseDate(payload.PeriodStart)
	if err != nil || payload.PeriodStart == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid periodStart", middleware.GetRequestID(r.Context()))
		return
	}
	end, err := shared.ParseDate(payload.PeriodEnd)
	if err != nil || payload.PeriodEnd == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid periodEnd", middleware.GetRequestID(r.Context()))
		return
	}

	// A retried run with the same key replays the stored response instead of
	// posting the period twice.
	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" {
		stored, found, err := middleware.CheckIdempotency(r.Context(), h.Store.Pool, user.UserID, "payroll.run", idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", middleware.GetRequestID(r.Context()))
			return
		}
		if err != nil {
			log.Printf("idempotency check failed: %v", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), middleware.GetRequestID(r.Context()))
			return
		}
	}

	run, err := h.Engine.Run(r.Context(), start, end, user.UserID, payload.Notes)
	if errors.Is(err, payroll.ErrInvalidPeriod) {
		api.Fail(w, http.StatusBadRequest, "validation_error", "period end is before period start", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "run_failed", "payroll run failed", middleware.GetRequestID(r.Context()))
		return
	}

	if idempotencyKey != "" {
		encoded, err := json.Marshal(run)
		if err != nil {
			log.Printf("idempotency response marshal failed: %v", err)
		} else if err := middleware.SaveIdempotency(r.Context(), h.Store.Pool, user.UserID, "payroll.run", idempotencyKey, requestHash, encoded); err != nil {
			log.Printf("idempotency save failed: %v", err)
		}
	}

	api.Created(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Store.ListRuns(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list payroll runs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, payroll.ErrRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load payroll run", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := h.Store.GetRun(r.Context(), runID); err != nil {
		if errors.Is(err, payroll.ErrRunNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load payroll run", middleware.GetRequestID(r.Context()))
		return
	}

	items, err := h.Store.ListItems(r.Context(), runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list payroll items", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetItem(r.Context(), chi.URLParam(r, "itemID"))
	if errors.Is(err, payroll.ErrItemNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll item not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load payroll item", middleware.GetRequestID(r.Context()))
		return
	}

	run, err := h.Store.GetRun(r.Context(), item.RunID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load payroll run", middleware.GetRequestID(r.Context()))
		return
	}

	pdf, err := payroll.RenderPayslip(run, item)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", item.ID))
	_, _ = w.Write(pdf)
}

type salaryRequest struct {
	BaseSalary string `json:"baseSalary"`
}

func (h *Handler) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload salaryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	cents, err := money.ParseCents(payload.BaseSalary)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid baseSalary", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateBaseSalary(r.Context(), actorID(r), employeeID, cents); err != nil {
		h.failEntryWrite(w, r, err)
		return
	}

	api.Success(w, map[string]string{"id": employeeID, "baseSalary": money.FormatCents(cents)}, middleware.GetRequestID(r.Context()))
}

type entryRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func (h *Handler) handleListAllowances(w http.ResponseWriter, r *http.Request) {
	allowances, err := h.Store.ListAllowances(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list allowances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, allowances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAllowance(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, h.Store.CreateAllowance)
}

func (h *Handler) handleListDeductions(w http.ResponseWriter, r *http.Request) {
	deductions, err := h.Store.ListDeductions(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list deductions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, deductions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDeduction(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, h.Store.CreateDeduction)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request, create func(ctx context.Context, actorID *string, employeeID, name string, amountCents int64) (string, error)) {
	employeeID := chi.URLParam(r, "employeeID")

	var payload entryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "name and amount are required", middleware.GetRequestID(r.Context()))
		return
	}
	cents, err := money.ParseCents(payload.Amount)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid amount", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := create(r.Context(), actorID(r), employeeID, payload.Name, cents)
	if err != nil {
		h.failEntryWrite(w, r, err)
		return
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSetAllowanceActive(w http.ResponseWriter, r *http.Request) {
	h.setEntryActive(w, r, h.Store.SetAllowanceActive)
}

func (h *Handler) handleSetDeductionActive(w http.ResponseWriter, r *http.Request) {
	h.setEntryActive(w, r, h.Store.SetDeductionActive)
}

func (h *Handler) setEntryActive(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, actorID *string, id string, active bool) error) {
	entryID := chi.URLParam(r, "entryID")

	var payload activeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := set(r.Context(), actorID(r), entryID, payload.Active); err != nil {
		h.failEntryWrite(w, r, err)
		return
	}

	api.Success(w, map[string]any{"id": entryID, "active": payload.Active}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failEntryWrite(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrNegativeAmount):
		api.Fail(w, http.StatusBadRequest, "validation_error", "amount must not be negative", reqID)
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, payroll.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "entry not found", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "write_failed", "failed to save entry", reqID)
	}
}

func actorID(r *http.Request) *string {
	if user, ok := middleware.GetUser(r.Context()); ok {
		return &user.UserID
	}
	return nil
}
