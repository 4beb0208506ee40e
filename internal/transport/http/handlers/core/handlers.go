package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrlite/internal/domain/auth"
	"hrlite/internal/domain/core"
	"hrlite/internal/money"
	"hrlite/internal/transport/http/api"
	"hrlite/internal/transport/http/middleware"
	"hrlite/internal/transport/http/shared"
)

type Handler struct {
	Store    *core.Store
	Resolver *auth.Resolver
}

func NewHandler(store *core.Store, resolver *auth.Resolver) *Handler {
	return &Handler{Store: store, Resolver: resolver}
}

// RegisterRoutes owns the single /employees mount. Other areas that hang
// routes off /employees/{employeeID} (salary, allowances, attendance) pass
// their registration funcs here instead of mounting a second, competing
// subtree on the parent router.
func (h *Handler) RegisterRoutes(r chi.Router, employeeScoped ...func(chi.Router)) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesManage, h.Resolver)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesManage, h.Resolver)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesManage, h.Resolver)).Delete("/", h.handleDeleteEmployee)
			for _, register := range employeeScoped {
				register(r)
			}
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermEmployeesManage, h.Resolver)).Post("/", h.handleCreateDepartment)
		r.With(middleware.RequirePermission(auth.PermEmployeesManage, h.Resolver)).Delete("/{departmentID}", h.handleDeleteDepartment)
	})
}

type employeePayload struct {
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	JobTitle     string  `json:"jobTitle"`
	HireDate     string  `json:"hireDate"`
	BaseSalary   string  `json:"baseSalary"`
	DepartmentID *string `json:"departmentId"`
}

func (p employeePayload) toInput() (core.EmployeeInput, string) {
	if p.FullName == "" || p.Email == "" {
		return core.EmployeeInput{}, "fullName and email are required"
	}
	input := core.EmployeeInput{
		FullName:     p.FullName,
		Email:        p.Email,
		JobTitle:     p.JobTitle,
		DepartmentID: p.DepartmentID,
	}
	if p.HireDate != "" {
		parsed, err := shared.ParseDate(p.HireDate)
		if err != nil {
			return core.EmployeeInput{}, "invalid hireDate"
		}
		input.HireDate = &parsed
	}
	if p.BaseSalary != "" {
		cents, err := money.ParseCents(p.BaseSalary)
		if err != nil {
			return core.EmployeeInput{}, "invalid baseSalary"
		}
		input.BaseSalaryCents = cents
	}
	return input, ""
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	input, problem := payload.toInput()
	if problem != "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", problem, middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateEmployee(r.Context(), actorID(r), input)
	if err != nil {
		h.failEmployeeWrite(w, r, err)
		return
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	input, problem := payload.toInput()
	if problem != "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", problem, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateEmployee(r.Context(), actorID(r), id, input); err != nil {
		h.failEmployeeWrite(w, r, err)
		return
	}

	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	if err := h.Store.DeleteEmployee(r.Context(), actorID(r), id); err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete employee", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "department name is required", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateDepartment(r.Context(), actorID(r), payload.Name)
	if errors.Is(err, core.ErrDepartmentTaken) {
		api.Fail(w, http.StatusConflict, "conflict", "department name already taken", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create department", middleware.GetRequestID(r.Context()))
		return
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "departmentID")
	if err := h.Store.DeleteDepartment(r.Context(), actorID(r), id); err != nil {
		if errors.Is(err, core.ErrDepartmentNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "department not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete department", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failEmployeeWrite(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrNegativeSalary):
		api.Fail(w, http.StatusBadRequest, "validation_error", "base salary must not be negative", reqID)
	case errors.Is(err, core.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "conflict", "employee email already taken", reqID)
	case errors.Is(err, core.ErrDepartmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "department not found", reqID)
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "write_failed", "failed to save employee", reqID)
	}
}

func actorID(r *http.Request) *string {
	if user, ok := middleware.GetUser(r.Context()); ok {
		return &user.UserID
	}
	return nil
}
