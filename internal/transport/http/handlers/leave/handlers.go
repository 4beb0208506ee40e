package leavehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrlite/internal/domain/auth"
	"hrlite/internal/domain/leave"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
	"hrlite/internal/transport/http/shared"
)

type Handler struct {
	Store    *leave.Store
	Resolver *auth.Resolver
}

func NewHandler(store *leave.Store, resolver *auth.Resolver) *Handler {
	return &Handler{Store: store, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermLeavesApprove, h.Resolver)).Post("/approve", h.handleApprove)
			r.With(middleware.RequirePermission(auth.PermLeavesApprove, h.Resolver)).Post("/reject", h.handleReject)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload leave.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EmployeeID == "" || payload.LeaveType == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employeeId and leaveType are required", middleware.GetRequestID(r.Context()))
		return
	}

	from, err := shared.ParseDate(payload.DateFrom)
	if err != nil || payload.DateFrom == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid dateFrom", middleware.GetRequestID(r.Context()))
		return
	}
	to, err := shared.ParseDate(payload.DateTo)
	if err != nil || payload.DateTo == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid dateTo", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Store.Create(r.Context(), payload.EmployeeID, payload.LeaveType, from, to, payload.Reason)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrInvalidRange):
			api.Fail(w, http.StatusBadRequest, "validation_error", "dateTo is before dateFrom", middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrUnknownType):
			api.Fail(w, http.StatusBadRequest, "validation_error", "unknown leave type", middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrEmployeeGone):
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create leave request", middleware.GetRequestID(r.Context()))
		}
		return
	}

	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != leave.StatusPending && status != leave.StatusApproved && status != leave.StatusRejected {
		api.Fail(w, http.StatusBadRequest, "validation_error", "invalid status filter", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	requests, err := h.Store.List(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.Store.Get(r.Context(), chi.URLParam(r, "requestID"))
	if errors.Is(err, leave.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load leave request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, target string) {
	user, _ := middleware.GetUser(r.Context())

	req, err := h.Store.Decide(r.Context(), chi.URLParam(r, "requestID"), user.UserID, target)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, leave.ErrAlreadyDecided):
			api.Fail(w, http.StatusConflict, "conflict", "leave request already decided", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "decide_failed", "failed to decide leave request", middleware.GetRequestID(r.Context()))
		}
		return
	}

	api.Success(w, req, middleware.GetRequestID(r.Context()))
}
