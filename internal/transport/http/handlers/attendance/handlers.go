package attendancehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrlite/internal/domain/attendance"
	"hrlite/internal/domain/auth"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
	"hrlite/internal/transport/http/shared"
)

type Handler struct {
	Store    *attendance.Store
	Resolver *auth.Resolver
}

func NewHandler(store *attendance.Store, resolver *auth.Resolver) *Handler {
	return &Handler{Store: store, Resolver: resolver}
}

// RegisterEmployeeRoutes hangs the attendance routes off an existing
// /employees/{employeeID} subtree; it must not mount its own.
func (h *Handler) RegisterEmployeeRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAttendanceManage, h.Resolver))
		r.Get("/", h.handleHistory)
		r.Post("/check-in", h.handleCheckIn)
		r.Post("/check-out", h.handleCheckOut)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Store.CheckIn(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrOpenExists):
			api.Fail(w, http.StatusConflict, "conflict", "employee already checked in", middleware.GetRequestID(r.Context()))
		case errors.Is(err, attendance.ErrEmployeeGone):
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "check_in_failed", "failed to check in", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Store.CheckOut(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, attendance.ErrNoOpen) {
			api.Fail(w, http.StatusNotFound, "not_found", "no open attendance entry", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to check out", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 30, 100)
	entries, err := h.Store.History(r.Context(), chi.URLParam(r, "employeeID"), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}
