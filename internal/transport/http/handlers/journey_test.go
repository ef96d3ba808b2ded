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

	"hradmin/internal/app/server"
	"hradmin/internal/platform/config"
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
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		SeedDepartments:    []string{"Engineering", "Finance"},
		RunMigrations:      true,
		RunSeed:            true,
		MigrationsDir:      "../../../../migrations",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		CORSOrigins:        []string{"*"},
		MetricsEnabled:     true,
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

func TestRegistrationAndAttendanceJourney(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("journey-%d@example.com", suffix)
	status, resp := do(t, client, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"firstName":       "Journey",
		"lastName":        fmt.Sprintf("Tester%d", suffix),
		"dateOfBirth":     "1992-04-01",
		"phone":           fmt.Sprintf("+1555%07d", suffix%10000000),
		"email":           email,
		"gender":          "female",
		"address":         "1 Test Street",
		"hireDate":        "2024-01-15",
		"position":        "Developer",
		"salary":          4200,
		"password":        "Password123!",
		"confirmPassword": "Password123!",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d (%+v)", status, resp.Error)
	}
	token := tokenFrom(t, resp)

	// First clock of the day opens the record.
	status, resp = do(t, client, http.MethodPost, ts.URL+"/api/v1/attendance/clock", token, nil)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from first clock, got %d (%+v)", status, resp.Error)
	}

	// Second clock closes it and reports the worked duration.
	status, resp = do(t, client, http.MethodPost, ts.URL+"/api/v1/attendance/clock", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from second clock, got %d (%+v)", status, resp.Error)
	}
	var clockOut struct {
		Action      string   `json:"action"`
		WorkedHours *float64 `json:"workedHours"`
	}
	if err := json.Unmarshal(resp.Data, &clockOut); err != nil {
		t.Fatalf("failed to decode clock response: %v", err)
	}
	if clockOut.Action != "clock_out" || clockOut.WorkedHours == nil {
		t.Fatalf("expected clock_out with duration, got %+v", clockOut)
	}

	// Third clock must not mutate anything.
	status, resp = do(t, client, http.MethodPost, ts.URL+"/api/v1/attendance/clock", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 from third clock, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != "already_clocked_out" {
		t.Fatalf("expected already_clocked_out, got %+v", resp.Error)
	}

	// Logout revokes the token; the very next call fails.
	status, _ = do(t, client, http.MethodPost, ts.URL+"/api/v1/auth/logout", token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", status)
	}
	status, resp = do(t, client, http.MethodGet, ts.URL+"/api/v1/auth/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != "token_revoked" {
		t.Fatalf("expected token_revoked, got %+v", resp.Error)
	}
}

func TestTaxYearUniqueness(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	lastName := fmt.Sprintf("Taxcase%d", suffix)
	registerEmployee(t, client, ts.URL, "Tina", lastName, suffix)

	payload := map[string]any{
		"employeeName":  "Tina " + lastName,
		"taxPercentage": 22.5,
		"taxAmount":     900.0,
		"year":          2024,
	}
	status, resp := do(t, client, http.MethodPost, ts.URL+"/api/v1/tax", adminToken, payload)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from tax create, got %d (%+v)", status, resp.Error)
	}

	status, resp = do(t, client, http.MethodPost, ts.URL+"/api/v1/tax", adminToken, payload)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 from duplicate tax year, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != "conflict" {
		t.Fatalf("expected conflict, got %+v", resp.Error)
	}
}

func TestDepartmentManagerExclusivity(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	lastName := fmt.Sprintf("Boss%d", suffix)
	employeeID := registerEmployee(t, client, ts.URL, "Mel", lastName, suffix)

	deptA := createDepartment(t, client, ts.URL, adminToken, fmt.Sprintf("Ops-%d", suffix))
	deptB := createDepartment(t, client, ts.URL, adminToken, fmt.Sprintf("Sales-%d", suffix))

	status, resp := do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptA), adminToken, map[string]any{
		"managerId": employeeID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 assigning manager, got %d (%+v)", status, resp.Error)
	}

	// Reassigning the same department is a no-op.
	status, resp = do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptA), adminToken, map[string]any{
		"managerId": employeeID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 re-assigning same department, got %d (%+v)", status, resp.Error)
	}

	// A second department cannot take the same manager.
	status, resp = do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptB), adminToken, map[string]any{
		"managerId": employeeID,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 assigning manager twice, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != "conflict" {
		t.Fatalf("expected conflict, got %+v", resp.Error)
	}
}

func TestEmployeeCannotReadForeignPayroll(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	ownerLast := fmt.Sprintf("Owner%d", suffix)
	registerEmployee(t, client, ts.URL, "Olive", ownerLast, suffix)

	status, resp := do(t, client, http.MethodPost, ts.URL+"/api/v1/payroll", adminToken, map[string]any{
		"employeeName": "Olive " + ownerLast,
		"payDate":      "2026-01-25",
		"baseSalary":   4200.0,
		"overtime":     150.0,
		"deductions":   300.0,
		"bonuses":      100.0,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from payroll create, got %d (%+v)", status, resp.Error)
	}
	var created struct {
		ID       int64   `json:"id"`
		TotalPay float64 `json:"totalPay"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to decode payroll response: %v", err)
	}
	if created.TotalPay != 4150 {
		t.Fatalf("expected total 4150, got %v", created.TotalPay)
	}

	otherSuffix := suffix + 1
	otherLast := fmt.Sprintf("Other%d", otherSuffix)
	registerEmployee(t, client, ts.URL, "Oscar", otherLast, otherSuffix)
	otherToken := login(t, client, ts.URL, fmt.Sprintf("journey-%d@example.com", otherSuffix), "Password123!")

	status, resp = do(t, client, http.MethodGet, fmt.Sprintf("%s/api/v1/payroll/%d", ts.URL, created.ID), otherToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 reading foreign payroll, got %d (%+v)", status, resp.Error)
	}

	status, _ = do(t, client, http.MethodGet, fmt.Sprintf("%s/api/v1/payroll/%d", ts.URL, created.ID+1000000), otherToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing payroll, got %d", status)
	}
}

func TestUnlinkedAccountCannotListLedgers(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	ownerLast := fmt.Sprintf("Payee%d", suffix)
	registerEmployee(t, client, ts.URL, "Paula", ownerLast, suffix)
	status, resp := do(t, client, http.MethodPost, ts.URL+"/api/v1/payroll", adminToken, map[string]any{
		"employeeName": "Paula " + ownerLast,
		"payDate":      "2026-02-25",
		"baseSalary":   3000.0,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from payroll create, got %d (%+v)", status, resp.Error)
	}

	// Deleting the employee leaves the user account behind with no
	// employee link; a token minted after that carries a zero employee id.
	orphanSuffix := suffix + 1
	orphanLast := fmt.Sprintf("Orphan%d", orphanSuffix)
	orphanEmployeeID := registerEmployee(t, client, ts.URL, "Oren", orphanLast, orphanSuffix)
	status, resp = do(t, client, http.MethodDelete, fmt.Sprintf("%s/api/v1/employees/%d", ts.URL, orphanEmployeeID), adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from employee delete, got %d (%+v)", status, resp.Error)
	}
	orphanToken := login(t, client, ts.URL, fmt.Sprintf("journey-%d@example.com", orphanSuffix), "Password123!")

	// The unlinked account must not see anyone's rows.
	for _, path := range []string{"/api/v1/payroll", "/api/v1/tax", "/api/v1/leave", "/api/v1/bonus", "/api/v1/attendance"} {
		status, resp = do(t, client, http.MethodGet, ts.URL+path, orphanToken, nil)
		if status != http.StatusForbidden {
			t.Fatalf("expected 403 from %s for unlinked account, got %d (%+v)", path, status, resp.Error)
		}
		if resp.Error == nil || resp.Error.Code != "forbidden" {
			t.Fatalf("expected forbidden from %s, got %+v", path, resp.Error)
		}
	}
}

func TestDepartmentDeleteGuard(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	lastName := fmt.Sprintf("Staff%d", suffix)
	employeeID := registerEmployee(t, client, ts.URL, "Stan", lastName, suffix)
	deptID := createDepartment(t, client, ts.URL, adminToken, fmt.Sprintf("Support-%d", suffix))

	status, resp := do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/employees/%d", ts.URL, employeeID), adminToken, map[string]any{
		"departmentId": deptID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 assigning department, got %d (%+v)", status, resp.Error)
	}

	// Delete is refused while anyone is still assigned.
	status, resp = do(t, client, http.MethodDelete, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptID), adminToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 deleting occupied department, got %d (%+v)", status, resp.Error)
	}
	if resp.Error == nil || resp.Error.Code != "conflict" {
		t.Fatalf("expected conflict, got %+v", resp.Error)
	}

	// Once the roster is empty the delete goes through.
	status, resp = do(t, client, http.MethodDelete, fmt.Sprintf("%s/api/v1/employees/%d", ts.URL, employeeID), adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from employee delete, got %d (%+v)", status, resp.Error)
	}
	status, resp = do(t, client, http.MethodDelete, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptID), adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 deleting empty department, got %d (%+v)", status, resp.Error)
	}
}

func TestPayrollPatchRecomputesTotal(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	lastName := fmt.Sprintf("Patch%d", suffix)
	registerEmployee(t, client, ts.URL, "Pete", lastName, suffix)

	status, resp := do(t, client, http.MethodPost, ts.URL+"/api/v1/payroll", adminToken, map[string]any{
		"employeeName": "Pete " + lastName,
		"payDate":      "2026-03-25",
		"baseSalary":   3000.0,
		"overtime":     100.0,
		"deductions":   200.0,
		"bonuses":      50.0,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from payroll create, got %d (%+v)", status, resp.Error)
	}
	var created struct {
		ID       int64   `json:"id"`
		TotalPay float64 `json:"totalPay"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("failed to decode payroll response: %v", err)
	}
	if created.TotalPay != 2950 {
		t.Fatalf("expected total 2950, got %v", created.TotalPay)
	}

	status, resp = do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/payroll/%d", ts.URL, created.ID), adminToken, map[string]any{
		"bonuses": 500.0,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 from payroll patch, got %d (%+v)", status, resp.Error)
	}
	var patched struct {
		Bonuses  float64 `json:"bonuses"`
		TotalPay float64 `json:"totalPay"`
	}
	if err := json.Unmarshal(resp.Data, &patched); err != nil {
		t.Fatalf("failed to decode payroll response: %v", err)
	}
	if patched.Bonuses != 500 || patched.TotalPay != 3400 {
		t.Fatalf("expected bonuses 500 and total 3400, got %+v", patched)
	}
}

func TestDepartmentPatchReleasesManager(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	lastName := fmt.Sprintf("Lead%d", suffix)
	employeeID := registerEmployee(t, client, ts.URL, "Lena", lastName, suffix)

	deptA := createDepartment(t, client, ts.URL, adminToken, fmt.Sprintf("Design-%d", suffix))
	deptB := createDepartment(t, client, ts.URL, adminToken, fmt.Sprintf("Research-%d", suffix))

	status, resp := do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptA), adminToken, map[string]any{
		"managerId": employeeID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 assigning manager, got %d (%+v)", status, resp.Error)
	}

	// An explicit null releases the slot.
	status, resp = do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptA), adminToken, map[string]any{
		"managerId": nil,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 releasing manager, got %d (%+v)", status, resp.Error)
	}
	var released struct {
		ManagerID *int64 `json:"managerId"`
	}
	if err := json.Unmarshal(resp.Data, &released); err != nil {
		t.Fatalf("failed to decode department response: %v", err)
	}
	if released.ManagerID != nil {
		t.Fatalf("expected manager released, got %v", *released.ManagerID)
	}

	// The released manager can now take another department.
	status, resp = do(t, client, http.MethodPatch, fmt.Sprintf("%s/api/v1/departments/%d", ts.URL, deptB), adminToken, map[string]any{
		"managerId": employeeID,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 assigning released manager, got %d (%+v)", status, resp.Error)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	status, resp := do(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d (%+v)", status, resp.Error)
	}
	return tokenFrom(t, resp)
}

func registerEmployee(t *testing.T, client *http.Client, baseURL, first, last string, suffix int64) int64 {
	t.Helper()
	status, resp := do(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", "", map[string]any{
		"firstName":       first,
		"lastName":        last,
		"dateOfBirth":     "1990-06-15",
		"phone":           fmt.Sprintf("+4477%08d", suffix%100000000),
		"email":           fmt.Sprintf("journey-%d@example.com", suffix),
		"gender":          "male",
		"address":         "2 Test Avenue",
		"hireDate":        "2023-09-01",
		"position":        "Analyst",
		"salary":          3900,
		"password":        "Password123!",
		"confirmPassword": "Password123!",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d (%+v)", status, resp.Error)
	}

	var payload struct {
		User struct {
			EmployeeID int64 `json:"employeeId"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if payload.User.EmployeeID == 0 {
		t.Fatal("expected employee id")
	}
	return payload.User.EmployeeID
}

func createDepartment(t *testing.T, client *http.Client, baseURL, token, name string) int64 {
	t.Helper()
	status, resp := do(t, client, http.MethodPost, baseURL+"/api/v1/departments", token, map[string]any{
		"name":        name,
		"description": name + " department",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from department create, got %d (%+v)", status, resp.Error)
	}
	var dept struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &dept); err != nil {
		t.Fatalf("failed to decode department response: %v", err)
	}
	return dept.ID
}

func tokenFrom(t *testing.T, resp envelope) string {
	t.Helper()
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("expected token")
	}
	return payload.Token
}

func do(t *testing.T, client *http.Client, method, url, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, env
}
