package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/quiz/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/quiz/1", "/quiz/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := scrape(t, m)
	if !strings.Contains(out, `quizmaster_http_requests_total{method="GET",route="/quiz/{id}",status="418"} 2`) {
		t.Fatalf("route pattern counter missing:\n%s", out)
	}
	if !strings.Contains(out, `status="404"`) {
		t.Fatalf("unmatched request not counted:\n%s", out)
	}
}

func TestObserveAttempt(t *testing.T) {
	m := New()
	m.ObserveAttempt(5, 10)
	m.ObserveAttempt(0, 0)

	out := scrape(t, m)
	if !strings.Contains(out, "quizmaster_attempts_recorded_total 2") {
		t.Fatalf("attempt counter missing:\n%s", out)
	}
	if !strings.Contains(out, "quizmaster_attempt_score_ratio_count 1") {
		t.Fatalf("score ratio should skip quizzes without marks:\n%s", out)
	}
}
