package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hrlite/internal/app/server"
	"hrlite/internal/domain/auth"
	"hrlite/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		Environment:       "test",
		SeedAdminUsername: "admin",
		SeedAdminPassword: "ChangeMe123!",
		RunMigrations:     true,
		MigrationsDir:     "../../../../migrations",
		RunSeed:           true,
		MaxBodyBytes:      1048576,
		SessionTTL:        time.Hour,
	}
}

func startApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	app, err := server.New(context.Background(), testConfig(dbURL))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts
}

func TestPayrollJourney(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeeID := postForID(t, client, ts.URL+"/api/v1/employees", token, map[string]any{
		"fullName":   "Journey Tester",
		"email":      email,
		"jobTitle":   "Engineer",
		"baseSalary": "5000.00",
	})

	postForID(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/allowances", token, map[string]any{
		"name":   "Transport",
		"amount": "200.00",
	})
	deductionID := postForID(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/deductions", token, map[string]any{
		"name":   "Old levy",
		"amount": "1000.00",
	})
	putJSON(t, client, ts.URL+"/api/v1/deductions/"+deductionID+"/active", token, map[string]any{"active": false}, http.StatusOK)
	postForID(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/deductions", token, map[string]any{
		"name":   "Tax",
		"amount": "300.00",
	})

	resp := postJSON(t, client, ts.URL+"/api/v1/payroll/runs", token, map[string]any{
		"periodStart": "2026-08-01",
		"periodEnd":   "2026-08-31",
	}, http.StatusCreated)
	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Status != "posted" {
		t.Fatalf("expected run status posted, got %s", run.Status)
	}

	items := getJSON(t, client, ts.URL+"/api/v1/payroll/runs/"+run.ID+"/items", token)
	var lines []struct {
		EmployeeID string `json:"employeeId"`
		BaseSalary string `json:"baseSalary"`
		Allowances string `json:"allowances"`
		Deductions string `json:"deductions"`
		NetPay     string `json:"netPay"`
	}
	if err := json.Unmarshal(items.Data, &lines); err != nil {
		t.Fatalf("decode items: %v", err)
	}

	found := false
	for _, line := range lines {
		if line.EmployeeID != employeeID {
			continue
		}
		found = true
		if line.BaseSalary != "5000.00" || line.Allowances != "200.00" || line.Deductions != "300.00" || line.NetPay != "4900.00" {
			t.Fatalf("unexpected pay line: %+v", line)
		}
	}
	if !found {
		t.Fatal("expected a pay line for the created employee")
	}
}

func TestEmployeeLifecycleJourney(t *testing.T) {
	app, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	email := fmt.Sprintf("lifecycle-%d@example.com", time.Now().UnixNano())
	employeeID := postForID(t, client, ts.URL+"/api/v1/employees", token, map[string]any{
		"fullName":   "Lifecycle Tester",
		"email":      email,
		"jobTitle":   "Analyst",
		"baseSalary": "2500.00",
	})

	fetched := getJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID, token)
	var emp struct {
		ID         string `json:"id"`
		FullName   string `json:"fullName"`
		BaseSalary string `json:"baseSalary"`
	}
	if err := json.Unmarshal(fetched.Data, &emp); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	if emp.ID != employeeID || emp.BaseSalary != "2500.00" {
		t.Fatalf("unexpected employee: %+v", emp)
	}

	putJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID, token, map[string]any{
		"fullName":   "Lifecycle Tester",
		"email":      email,
		"jobTitle":   "Senior Analyst",
		"baseSalary": "2600.00",
	}, http.StatusOK)

	updated := getJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID, token)
	if err := json.Unmarshal(updated.Data, &emp); err != nil {
		t.Fatalf("decode updated employee: %v", err)
	}
	if emp.BaseSalary != "2600.00" {
		t.Fatalf("expected updated salary 2600.00, got %s", emp.BaseSalary)
	}

	doJSON(t, client, http.MethodDelete, ts.URL+"/api/v1/employees/"+employeeID, token, nil, http.StatusOK)
	doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/employees/"+employeeID, token, nil, http.StatusNotFound)

	// Each mutation commits its audit row with it.
	for _, action := range []string{"employee.create", "employee.update", "employee.delete"} {
		if n := auditRows(t, app, action, employeeID); n != 1 {
			t.Fatalf("expected one %s audit row for %s, got %d", action, employeeID, n)
		}
	}
}

func TestLeaveApprovalJourney(t *testing.T) {
	app, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	email := fmt.Sprintf("leave-%d@example.com", time.Now().UnixNano())
	employeeID := postForID(t, client, ts.URL+"/api/v1/employees", token, map[string]any{
		"fullName":   "Leave Tester",
		"email":      email,
		"baseSalary": "3000.00",
	})

	// Inverted range must be rejected before any row lands.
	postJSON(t, client, ts.URL+"/api/v1/leaves", token, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "annual",
		"dateFrom":   "2026-09-10",
		"dateTo":     "2026-09-05",
	}, http.StatusBadRequest)

	resp := postJSON(t, client, ts.URL+"/api/v1/leaves", token, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "annual",
		"dateFrom":   "2026-09-05",
		"dateTo":     "2026-09-10",
	}, http.StatusCreated)
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &req); err != nil {
		t.Fatalf("decode leave request: %v", err)
	}

	decided := postJSON(t, client, ts.URL+"/api/v1/leaves/"+req.ID+"/approve", token, nil, http.StatusOK)
	var approved struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(decided.Data, &approved); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if approved.Status != "approved" {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	// A second decision hits the terminal-state guard.
	postJSON(t, client, ts.URL+"/api/v1/leaves/"+req.ID+"/reject", token, nil, http.StatusConflict)

	if n := auditRows(t, app, "leave.approve", req.ID); n != 1 {
		t.Fatalf("expected one leave.approve audit row, got %d", n)
	}
	if n := auditRows(t, app, "leave.reject", req.ID); n != 0 {
		t.Fatalf("rejected decision must not leave an audit row, got %d", n)
	}
}

func TestPayrollRunIdempotency(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	payload := map[string]any{
		"periodStart": "2026-06-01",
		"periodEnd":   "2026-06-30",
	}
	key := fmt.Sprintf("run-%d", time.Now().UnixNano())
	headers := map[string]string{"Idempotency-Key": key}

	first := doJSONHeaders(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/runs", token, payload, headers, http.StatusCreated)
	var run struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(first.Data, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}

	// Same key, same payload: the stored response replays, no second run.
	replay := doJSONHeaders(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/runs", token, payload, headers, http.StatusOK)
	var replayed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(replay.Data, &replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replayed.ID != run.ID {
		t.Fatalf("expected replay to return run %s, got %s", run.ID, replayed.ID)
	}

	// Same key, different payload: conflict, not a silent new run.
	conflict := doJSONHeaders(t, client, http.MethodPost, ts.URL+"/api/v1/payroll/runs", token, map[string]any{
		"periodStart": "2026-05-01",
		"periodEnd":   "2026-05-31",
	}, headers, http.StatusConflict)
	if conflict.Error == nil || conflict.Error.Code != "idempotency_conflict" {
		t.Fatalf("expected idempotency_conflict, got %+v", conflict.Error)
	}
}

func TestAttendanceOpenEntryInvariant(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	token := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	email := fmt.Sprintf("attendance-%d@example.com", time.Now().UnixNano())
	employeeID := postForID(t, client, ts.URL+"/api/v1/employees", token, map[string]any{
		"fullName":   "Attendance Tester",
		"email":      email,
		"baseSalary": "3000.00",
	})

	base := ts.URL + "/api/v1/employees/" + employeeID + "/attendance"
	postJSON(t, client, base+"/check-out", token, nil, http.StatusNotFound)
	postJSON(t, client, base+"/check-in", token, nil, http.StatusCreated)
	postJSON(t, client, base+"/check-in", token, nil, http.StatusConflict)
	postJSON(t, client, base+"/check-out", token, nil, http.StatusOK)
	postJSON(t, client, base+"/check-in", token, nil, http.StatusCreated)
}

func TestPayrollClerkPermissions(t *testing.T) {
	app, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin", "ChangeMe123!", "")

	ctx := context.Background()
	var clerkRoleID string
	if err := app.Pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", auth.RolePayrollClerk).Scan(&clerkRoleID); err != nil {
		t.Fatalf("load clerk role: %v", err)
	}

	clerkName := fmt.Sprintf("clerk-%d", time.Now().UnixNano())
	clerkID := postForID(t, client, ts.URL+"/api/v1/users", adminToken, map[string]any{
		"username": clerkName,
		"password": "Clerk123!",
	})
	putJSON(t, client, ts.URL+"/api/v1/users/"+clerkID+"/roles", adminToken, map[string]any{
		"roleIds": []string{clerkRoleID},
	}, http.StatusOK)

	email := fmt.Sprintf("clerk-target-%d@example.com", time.Now().UnixNano())
	employeeID := postForID(t, client, ts.URL+"/api/v1/employees", adminToken, map[string]any{
		"fullName":   "Clerk Target",
		"email":      email,
		"baseSalary": "1000.00",
	})

	clerkToken := login(t, client, ts.URL, clerkName, "Clerk123!", "")

	// payroll.run is granted, payroll.salary.update is not.
	postJSON(t, client, ts.URL+"/api/v1/payroll/runs", clerkToken, map[string]any{
		"periodStart": "2026-07-01",
		"periodEnd":   "2026-07-31",
	}, http.StatusCreated)
	putJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/salary", clerkToken, map[string]any{
		"baseSalary": "2000.00",
	}, http.StatusForbidden)
}

func auditRows(t *testing.T, app *server.App, action, entityID string) int {
	t.Helper()
	var count int
	err := app.Pool.QueryRow(context.Background(),
		"SELECT COUNT(1) FROM audit_logs WHERE action = $1 AND entity_id = $2", action, entityID).Scan(&count)
	if err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	return count
}

func login(t *testing.T, client *http.Client, baseURL, username, password, mfaCode string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
		"mfaCode":  mfaCode,
	}, http.StatusOK)

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("expected token")
	}
	return payload.Token
}

func postForID(t *testing.T, client *http.Client, url, token string, payload map[string]any) string {
	t.Helper()
	resp := postJSON(t, client, url, token, payload, http.StatusCreated)
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("decode id from %s: %v", url, err)
	}
	if out.ID == "" {
		t.Fatalf("expected id from %s", url)
	}
	return out.ID
}

func postJSON(t *testing.T, client *http.Client, url, token string, payload map[string]any, wantStatus int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPost, url, token, payload, wantStatus)
}

func putJSON(t *testing.T, client *http.Client, url, token string, payload map[string]any, wantStatus int) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodPut, url, token, payload, wantStatus)
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	return doJSON(t, client, http.MethodGet, url, token, nil, http.StatusOK)
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload map[string]any, wantStatus int) envelope {
	t.Helper()
	return doJSONHeaders(t, client, method, url, token, payload, nil, wantStatus)
}

func doJSONHeaders(t *testing.T, client *http.Client, method, url, token string, payload map[string]any, headers map[string]string, wantStatus int) envelope {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, wantStatus, resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope from %s: %v", url, err)
	}
	return env
}
