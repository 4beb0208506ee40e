package rbachandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrlite/internal/domain/audit"
	"hrlite/internal/domain/auth"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
)

type Handler struct {
	Pool     *pgxpool.Pool
	Store    *auth.Store
	Resolver *auth.Resolver
	Audit    *audit.Recorder
}

func NewHandler(pool *pgxpool.Pool, store *auth.Store, resolver *auth.Resolver, recorder *audit.Recorder) *Handler {
	return &Handler{Pool: pool, Store: store, Resolver: resolver, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	manage := middleware.RequirePermission(auth.PermUsersManage, h.Resolver)

	r.Route("/users", func(r chi.Router) {
		r.Use(manage)
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Route("/{userID}", func(r chi.Router) {
			r.Delete("/", h.handleDeleteUser)
			r.Put("/admin", h.handleSetAdmin)
			r.Get("/roles", h.handleUserRoles)
			r.Put("/roles", h.handleReplaceUserRoles)
		})
	})
	r.Route("/roles", func(r chi.Router) {
		r.Use(manage)
		r.Get("/", h.handleListRoles)
		r.Post("/", h.handleCreateRole)
		r.Put("/{roleID}/permissions", h.handleReplaceRoleGrants)
	})
	r.With(manage).Get("/permissions", h.handleListPermissions)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Username == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "username and password are required", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			api.Fail(w, http.StatusBadRequest, "validation_error", "password exceeds 72 bytes", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateUser(r.Context(), actorID(r), payload.Username, hash, payload.IsAdmin)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			api.Fail(w, http.StatusConflict, "conflict", "username already taken", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if actor, ok := middleware.GetUser(r.Context()); ok && actor.UserID == userID {
		api.Fail(w, http.StatusBadRequest, "validation_error", auth.ErrSelfDelete.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.DeleteUser(r.Context(), actorID(r), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete user", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"id": userID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var payload struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetAdmin(r.Context(), actorID(r), userID, payload.IsAdmin); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update user", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{"id": userID, "isAdmin": payload.IsAdmin}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUserRoles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.UserRoleIDs(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list user roles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"roleIds": ids}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplaceUserRoles(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var payload struct {
		RoleIDs []string `json:"roleIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	tx, err := h.Pool.Begin(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update roles", middleware.GetRequestID(r.Context()))
		return
	}
	defer func() {
		_ = tx.Rollback(r.Context())
	}()

	if err := h.Store.ReplaceUserRoles(r.Context(), tx, userID, payload.RoleIDs); err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			api.Fail(w, http.StatusBadRequest, "validation_error", "unknown role id", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to assign roles", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.auditTx(r, tx, "user.roles.replace", "user", userID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update roles", middleware.GetRequestID(r.Context()))
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update roles", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{"id": userID, "roleIds": payload.RoleIDs}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list roles", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "role name is required", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateRole(r.Context(), actorID(r), payload.Name)
	if err != nil {
		if errors.Is(err, auth.ErrRoleNameTaken) {
			api.Fail(w, http.StatusConflict, "conflict", "role name already taken", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create role", middleware.GetRequestID(r.Context()))
		return
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplaceRoleGrants(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "roleID")

	var payload struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	tx, err := h.Pool.Begin(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update grants", middleware.GetRequestID(r.Context()))
		return
	}
	defer func() {
		_ = tx.Rollback(r.Context())
	}()

	if err := h.Store.ReplaceRoleGrants(r.Context(), tx, roleID, payload.Permissions); err != nil {
		if errors.Is(err, auth.ErrPermissionUnknown) {
			api.Fail(w, http.StatusBadRequest, "validation_error", "unknown permission code", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update grants", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.auditTx(r, tx, "role.grants.replace", "role", roleID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update grants", middleware.GetRequestID(r.Context()))
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update grants", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{"id": roleID, "permissions": payload.Permissions}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	codes, err := h.Store.ListPermissionCodes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list permissions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, codes, middleware.GetRequestID(r.Context()))
}

func (h *Handler) auditTx(r *http.Request, db audit.DBTX, action, entity, entityID string) error {
	return h.Audit.Record(r.Context(), db, actorID(r), action, &entity, &entityID, nil)
}

func actorID(r *http.Request) *string {
	if user, ok := middleware.GetUser(r.Context()); ok {
		return &user.UserID
	}
	return nil
}
