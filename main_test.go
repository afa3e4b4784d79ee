package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/s1natex/tasks-web-GO/internal/config"
	"github.com/s1natex/tasks-web-GO/internal/flash"
	"github.com/s1natex/tasks-web-GO/internal/tasks"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:           ":0",
		DatabaseURL:        "memory://",
		SecretKey:          "test-secret",
		CORSAllowedOrigins: []string{"*"},
		TracingExporter:    "none",
		RequestTimeout:     5 * time.Second,
	}
}

func newTestRouter(t *testing.T, repo tasks.Repository) http.Handler {
	t.Helper()
	flashes, err := flash.New(flash.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("flash: %v", err)
	}
	logger := newLogger(slog.LevelError, io.Discard)
	return newRouter(testConfig(), tasks.Instrument(repo), flashes, logger)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, tasks.NewInMemoryRepo())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	expected := `{"status":"ok"}`
	if strings.TrimSpace(w.Body.String()) != expected {
		t.Errorf("expected body %s, got %s", expected, w.Body.String())
	}
}

type downRepo struct {
	*tasks.InMemoryRepo
}

func (downRepo) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthEndpoint_StoreDown(t *testing.T) {
	r := newTestRouter(t, downRepo{tasks.NewInMemoryRepo()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestRouter_ServesTaskPagesAndMetrics(t *testing.T) {
	r := newTestRouter(t, tasks.NewInMemoryRepo())

	form := url.Values{"title": {"wired"}}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 from POST /add, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "wired") {
		t.Fatalf("expected list page with new task, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`http_requests_total{method="POST",path="/add",status="302"}`,
		`task_store_operation_duration_seconds_count{op="create",outcome="ok"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics to contain %q", want)
		}
	}
}

func TestRouter_UnknownTaskIs404(t *testing.T) {
	r := newTestRouter(t, tasks.NewInMemoryRepo())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/edit/12345", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRun_ListenFailureTearsDownAndReturns(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cfg := testConfig()
	cfg.HTTPAddr = busy.Addr().String()
	cfg.ShutdownTimeout = 5 * time.Second

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := run(cfg, newLogger(slog.LevelError, io.Discard))
		done <- result{code, err}
	}()

	select {
	case res := <-done:
		if res.err == nil || res.code != 1 {
			t.Fatalf("expected exit code 1 with an error, got %d, %v", res.code, res.err)
		}
		if !strings.Contains(res.err.Error(), "serve") {
			t.Fatalf("expected serve error, got %v", res.err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not return after the listener failed")
	}
}
