package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	attendancehandler "hrlite/internal/transport/http/handlers/attendance"
	corehandler "hrlite/internal/transport/http/handlers/core"
	payrollhandler "hrlite/internal/transport/http/handlers/payroll"
)

// All employee-scoped routes hang off the one /employees mount that the core
// handler owns. Registering a second /employees subtree on the parent router
// would shadow the single-employee routes, so every path here must resolve to
// a handler (401 without credentials) rather than fall through to a 404.
func TestEmployeeRoutesResolveUnderSingleMount(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		payrollH := payrollhandler.NewHandler(nil, nil, nil)
		attendanceH := attendancehandler.NewHandler(nil, nil)
		corehandler.NewHandler(nil, nil).RegisterRoutes(r,
			payrollH.RegisterEmployeeRoutes, attendanceH.RegisterEmployeeRoutes)
		payrollH.RegisterRoutes(r)
	})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/employees"},
		{http.MethodPost, "/api/v1/employees"},
		{http.MethodGet, "/api/v1/employees/abc"},
		{http.MethodPut, "/api/v1/employees/abc"},
		{http.MethodDelete, "/api/v1/employees/abc"},
		{http.MethodPut, "/api/v1/employees/abc/salary"},
		{http.MethodGet, "/api/v1/employees/abc/allowances"},
		{http.MethodPost, "/api/v1/employees/abc/allowances"},
		{http.MethodGet, "/api/v1/employees/abc/deductions"},
		{http.MethodPost, "/api/v1/employees/abc/deductions"},
		{http.MethodGet, "/api/v1/employees/abc/attendance"},
		{http.MethodPost, "/api/v1/employees/abc/attendance/check-in"},
		{http.MethodPost, "/api/v1/employees/abc/attendance/check-out"},
		{http.MethodGet, "/api/v1/payroll/runs"},
		{http.MethodPut, "/api/v1/allowances/e1/active"},
		{http.MethodPut, "/api/v1/deductions/e1/active"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusNotFound {
			t.Fatalf("%s %s did not resolve to a registered route", tc.method, tc.path)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without credentials, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
