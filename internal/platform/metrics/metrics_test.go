package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_ExposesCounters(t *testing.T) {
	m := New("pht")
	m.ObserveRequest("GET", "/api/pets", 200, 15*time.Millisecond)
	m.ObserveDeletion("sequential", []string{"weights"})
	m.ObserveLogin("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`pht_http_requests_total{method="GET",route="/api/pets",status="200"} 1`,
		`pht_pet_deletions_total{path="sequential"} 1`,
		`pht_pet_cascade_failures_total{collection="weights"} 1`,
		`pht_login_attempts_total{outcome="success"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "", 500, time.Second)
	m.ObserveDeletion("atomic", nil)
	m.ObserveLogin("failure")
	m.ObserveNotifyFailure("pets.deleted")
}
