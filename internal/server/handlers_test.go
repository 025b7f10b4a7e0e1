package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lumilabs/healthd/internal/config"
	"github.com/lumilabs/healthd/internal/constants"
	"github.com/lumilabs/healthd/internal/health"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s, err := New(config.DefaultConfig(), "")
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return s
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = "192.0.2.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLivenessEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, constants.PathHealth)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get(constants.HeaderContentType); got != constants.ContentTypeJSON {
		t.Errorf("content type = %q, want %q", got, constants.ContentTypeJSON)
	}
	// The supervisor contract is byte-exact
	if body := rec.Body.String(); body != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", body, `{"status":"ok"}`)
	}
}

func TestLivenessEndpoint_RepeatedCallsIdentical(t *testing.T) {
	handler := newTestServer(t).Handler()

	first := get(t, handler, constants.PathHealth).Body.String()
	for i := 0; i < 20; i++ {
		if body := get(t, handler, constants.PathHealth).Body.String(); body != first {
			t.Fatalf("call %d body = %q, want %q", i, body, first)
		}
	}
}

func TestLivenessEndpoint_ConcurrentCallsIdentical(t *testing.T) {
	handler := newTestServer(t).Handler()

	const workers = 50
	bodies := make([]string, workers)
	codes := make([]int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := get(t, handler, constants.PathHealth)
			bodies[i] = rec.Body.String()
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if codes[i] != http.StatusOK {
			t.Errorf("worker %d status = %d, want 200", i, codes[i])
		}
		if bodies[i] != `{"status":"ok"}` {
			t.Errorf("worker %d body = %q", i, bodies[i])
		}
	}
}

func TestLivenessEndpoint_StaysAliveWhileDraining(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	s.registry.SetDraining(true)

	rec := get(t, handler, constants.PathHealth)
	if rec.Code != http.StatusOK {
		t.Errorf("draining liveness status = %d, want 200", rec.Code)
	}
}

func TestLivenessEndpoint_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest("POST", constants.PathHealth, nil)
	req.RemoteAddr = "192.0.2.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestReadinessEndpoint_Ready(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, constants.PathReady)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp health.ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Status != health.StatusReady {
		t.Errorf("status field = %q, want %q", resp.Status, health.StatusReady)
	}
}

func TestReadinessEndpoint_FailingCheck(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	if err := s.Registry().Register("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	}); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	rec := get(t, handler, constants.PathReady)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp health.ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Status != health.StatusNotReady {
		t.Errorf("status field = %q, want %q", resp.Status, health.StatusNotReady)
	}
	if resp.Checks["database"] {
		t.Error("database check should report false")
	}
}

func TestReadinessEndpoint_Draining(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	s.registry.SetDraining(true)

	rec := get(t, handler, constants.PathReady)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("draining status = %d, want 503", rec.Code)
	}

	s.registry.SetDraining(false)
	rec = get(t, handler, constants.PathReady)
	if rec.Code != http.StatusOK {
		t.Errorf("status after drain cleared = %d, want 200", rec.Code)
	}
}

func TestDetailsEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, constants.PathDetails)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if status.Status != health.StatusOK {
		t.Errorf("status = %q, want %q", status.Status, health.StatusOK)
	}
	if status.Service != "lumi-agent" {
		t.Errorf("service = %q, want lumi-agent", status.Service)
	}
	if status.Version == "" {
		t.Error("version is empty")
	}
	if status.Environment != "development" {
		t.Errorf("environment = %q, want development", status.Environment)
	}
	if status.Uptime == "" {
		t.Error("uptime is empty")
	}
	if status.GoVersion == "" {
		t.Error("go_version is empty")
	}
	if status.Timestamp.IsZero() {
		t.Error("timestamp is zero")
	}
	if status.System == nil {
		t.Fatal("system stats missing")
	}
	if status.System.Goroutines <= 0 {
		t.Errorf("goroutines = %d, want positive", status.System.Goroutines)
	}
}

func TestContractEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, constants.PathOpenAPI)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"lumi-healthd", constants.PathHealth, constants.PathReady, constants.PathDetails} {
		if !strings.Contains(body, want) {
			t.Errorf("contract document missing %q", want)
		}
	}
}

func TestDocsEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Service   string            `json:"service"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if doc.Service != "lumi-agent" {
		t.Errorf("service = %q, want lumi-agent", doc.Service)
	}
	if doc.Endpoints["liveness"] != constants.PathHealth {
		t.Errorf("liveness endpoint = %q, want %q", doc.Endpoints["liveness"], constants.PathHealth)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	handler := newTestServer(t).Handler()

	for _, path := range []string{"/api/v1/health/nope", "/api/v1/chat/", "/unknown"} {
		rec := get(t, handler, path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
		if ct := rec.Header().Get(constants.HeaderContentType); ct != constants.ContentTypeJSON {
			t.Errorf("GET %s content type = %q, want JSON error", path, ct)
		}
	}
}
