package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubChecker — фиксированный результат проверки готовности.
type stubChecker struct {
	status  string
	message string
}

func (c *stubChecker) CheckReady() (string, string) {
	return c.status, c.message
}

// doReady прогоняет readiness probe и декодирует ответ.
func doReady(t *testing.T, pg, objStore ReadinessChecker) (int, map[string]any) {
	t.Helper()

	h := NewHealthHandler(pg, objStore)
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("декодирование ответа readiness: %v", err)
	}
	return rec.Code, body
}

func readyCheckStatus(t *testing.T, body map[string]any, name string) string {
	t.Helper()
	checks, ok := body["checks"].(map[string]any)
	if !ok {
		t.Fatalf("ответ без checks: %v", body)
	}
	check, ok := checks[name].(map[string]any)
	if !ok {
		t.Fatalf("ответ без проверки %q: %v", name, checks)
	}
	status, _ := check["status"].(string)
	return status
}

func TestHealthReady_BothOK(t *testing.T) {
	code, body := doReady(t,
		&stubChecker{status: "ok"},
		&stubChecker{status: "ok"},
	)

	if code != http.StatusOK {
		t.Errorf("статус = %d, ожидался 200", code)
	}
	if body["status"] != "ok" {
		t.Errorf("итоговый статус = %v, ожидался ok", body["status"])
	}
	if s := readyCheckStatus(t, body, "postgresql"); s != "ok" {
		t.Errorf("postgresql = %q, ожидался ok", s)
	}
	if s := readyCheckStatus(t, body, "object_store"); s != "ok" {
		t.Errorf("object_store = %q, ожидался ok", s)
	}
}

// TestHealthReady_ObjectStoreDown проверяет, что недоступный object store
// делает сервис не готовым даже при живом PostgreSQL.
func TestHealthReady_ObjectStoreDown(t *testing.T) {
	code, body := doReady(t,
		&stubChecker{status: "ok"},
		&stubChecker{status: "fail", message: "object store недоступен"},
	)

	if code != http.StatusServiceUnavailable {
		t.Errorf("статус = %d, ожидался 503", code)
	}
	if body["status"] != "fail" {
		t.Errorf("итоговый статус = %v, ожидался fail", body["status"])
	}
	if s := readyCheckStatus(t, body, "object_store"); s != "fail" {
		t.Errorf("object_store = %q, ожидался fail", s)
	}
}

// TestHealthReady_MissingObjectStoreChecker: nil-checker не считается
// готовностью — сервис без проверки object store не ready.
func TestHealthReady_MissingObjectStoreChecker(t *testing.T) {
	code, body := doReady(t, &stubChecker{status: "ok"}, nil)

	if code != http.StatusServiceUnavailable {
		t.Errorf("статус = %d, ожидался 503", code)
	}
	if s := readyCheckStatus(t, body, "object_store"); s != "fail" {
		t.Errorf("object_store = %q, ожидался fail", s)
	}
}

func TestHealthReady_PostgresDown(t *testing.T) {
	code, body := doReady(t,
		&stubChecker{status: "fail", message: "PostgreSQL недоступен"},
		&stubChecker{status: "ok"},
	)

	if code != http.StatusServiceUnavailable {
		t.Errorf("статус = %d, ожидался 503", code)
	}
	if body["status"] != "fail" {
		t.Errorf("итоговый статус = %v, ожидался fail", body["status"])
	}
}
