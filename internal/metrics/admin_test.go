package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func getHealthz(t *testing.T, checks []Check) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	h := AdminHandler(checks, zap.NewNop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, body
}

func TestHealthzAllChecksPass(t *testing.T) {
	ok := func(context.Context) error { return nil }
	rec, body := getHealthz(t, []Check{
		{Name: "database", Func: ok},
		{Name: "embedding", Func: ok},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["database"] != "ok" || checks["embedding"] != "ok" {
		t.Errorf("unexpected check detail: %v", body["checks"])
	}
}

func TestHealthzFailingCheckDegrades(t *testing.T) {
	rec, body := getHealthz(t, []Check{
		{Name: "database", Func: func(context.Context) error { return nil }},
		{Name: "embedding", Func: func(context.Context) error { return errors.New("provider down") }},
	})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["database"] != "ok" {
		t.Errorf("database check = %v, want ok", checks["database"])
	}
	if checks["embedding"] != "fail" {
		t.Errorf("embedding check = %v, want fail", checks["embedding"])
	}
}

func TestHealthzNoChecks(t *testing.T) {
	rec, body := getHealthz(t, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}
