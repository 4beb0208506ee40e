package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrlite/internal/domain/audit"
	"hrlite/internal/domain/auth"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
	"hrlite/internal/transport/http/shared"
)

type Handler struct {
	Recorder *audit.Recorder
	Resolver *auth.Resolver
}

func NewHandler(recorder *audit.Recorder, resolver *auth.Resolver) *Handler {
	return &Handler{Recorder: recorder, Resolver: resolver}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditView, h.Resolver)).Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Action: r.URL.Query().Get("action"),
		Entity: r.URL.Query().Get("entity"),
	}
	page := shared.ParsePagination(r, 100, 500)

	events, err := h.Recorder.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}
