package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	appmw "github.com/s1natex/tasks-web-GO/internal/middleware"
)

func TestMetricsCounterUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(appmw.MetricsMiddleware)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/metrics-edit/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, p := range []string{"/ping", "/metrics-edit/1", "/metrics-edit/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}

	// scrape /metrics
	mrec := httptest.NewRecorder()
	appmw.MetricsHandler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", mrec.Code)
	}
	body := mrec.Body.String()

	for _, want := range []string{
		`http_requests_total{method="GET",path="/ping",status="200"} 1`,
		`http_requests_total{method="GET",path="/metrics-edit/{id}",status="404"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics to contain %q\nfull body:\n%s", want, body)
		}
	}
	if strings.Contains(body, `path="/metrics-edit/1"`) {
		t.Fatalf("raw ids must not become label values")
	}
}
