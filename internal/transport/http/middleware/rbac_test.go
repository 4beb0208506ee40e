package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrlite/internal/domain/auth"
)

type fakePermissionStore struct {
	grants map[string]bool
}

func (f *fakePermissionStore) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	return f.grants[userID+":"+permission], nil
}

func requestAs(user auth.UserContext) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), ctxKeyUser, user))
}

func TestRequirePermissionAllowsGranted(t *testing.T) {
	store := &fakePermissionStore{grants: map[string]bool{"u1:payroll.run": true}}
	called := false
	handler := RequirePermission(auth.PermPayrollRun, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(auth.UserContext{UserID: "u1"}))
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestRequirePermissionForbidsUngranted(t *testing.T) {
	store := &fakePermissionStore{grants: map[string]bool{"u1:payroll.run": true}}
	handler := RequirePermission(auth.PermPayrollSalaryEdit, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(auth.UserContext{UserID: "u1"}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermissionAdminOverride(t *testing.T) {
	store := &fakePermissionStore{grants: map[string]bool{}}
	called := false
	handler := RequirePermission(auth.PermUsersManage, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(auth.UserContext{UserID: "u2", IsAdmin: true}))
	if !called {
		t.Fatal("expected admin to bypass the permission check")
	}
}

func TestRequirePermissionUnauthenticated(t *testing.T) {
	store := &fakePermissionStore{}
	handler := RequirePermission(auth.PermPayrollRun, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
