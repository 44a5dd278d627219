package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecordingAndExposition(t *testing.T) {
	RecordVerification("authorized", "fallback")
	RecordLoadSearch(3)
	RecordNegotiationDecision("counter")
	RecordOutcome("booked")
	RecordHTTPRequest("/webhook/search-loads", "POST", "200", 0.012)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"freightline_carrier_verifications_total",
		"freightline_load_searches_total",
		"freightline_negotiation_decisions_total",
		"freightline_call_outcomes_total",
		"freightline_http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %s", want)
		}
	}
}

func TestNewManagerIsolatedRegistry(t *testing.T) {
	m := NewManager()
	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// Fresh manager starts empty: vectors have no series and plain counters
	// are zero, so nothing observed in other tests leaks in.
	for _, fam := range families {
		if strings.Contains(fam.GetName(), "http_requests") && len(fam.GetMetric()) > 0 {
			t.Fatalf("fresh registry already has series for %s", fam.GetName())
		}
	}
}
