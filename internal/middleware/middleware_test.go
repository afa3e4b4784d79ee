package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	appmw "github.com/s1natex/tasks-web-GO/internal/middleware"
)

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{}))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(appmw.RequestLogger(logger))

	r.Get("/debug/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/debug/panic", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d (body=%s)", rec.Code, rec.Body.String())
	}
}

func TestRequestLogger_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(appmw.RequestLogger(logger))
	r.Get("/toggle/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/toggle/7", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["status"] != float64(http.StatusFound) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["path"] != "/toggle/7" {
		t.Errorf("path = %v", entry["path"])
	}
	if entry["ip"] != "192.0.2.10" {
		t.Errorf("ip = %v", entry["ip"])
	}
	if id, _ := entry["req_id"].(string); id == "" {
		t.Errorf("expected req_id in log entry")
	}
}
