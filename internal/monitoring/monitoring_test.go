// internal/monitoring/monitoring_test.go
package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealthzEndpoint(t *testing.T) {
	server := httptest.NewServer(NewServer(":0", NewMetrics(""), nil, nil).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("healthz body decode error: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	metrics := NewMetrics("")
	metrics.ObserveExtraction("api", 120*time.Millisecond)
	metrics.ObserveFallback()
	metrics.ObserveDelivery("ok")
	metrics.ObserveDelivery("network")
	metrics.ObserveReArm()
	metrics.ObserveTeardown()
	metrics.ObserveStaleDiscard()

	server := httptest.NewServer(NewServer(":0", metrics, nil, nil).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	for _, want := range []string{
		`tellahook_extractions_total{method="api"} 1`,
		"tellahook_dom_fallbacks_total 1",
		`tellahook_webhook_deliveries_total{status="network"} 1`,
		`tellahook_webhook_deliveries_total{status="ok"} 1`,
		"tellahook_session_rearms_total 1",
		"tellahook_session_teardowns_total 1",
		"tellahook_stale_results_discarded_total 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStatsEndpoint(t *testing.T) {
	stats := func() map[string]interface{} {
		return map[string]interface{}{"state": "active", "activations": 3}
	}
	server := httptest.NewServer(NewServer(":0", NewMetrics(""), stats, nil).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/stats")
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("stats body decode error: %v", err)
	}
	if body["state"] != "active" {
		t.Errorf("state = %v, want active", body["state"])
	}
}

func TestIndependentMetricsInstancesDoNotCollide(t *testing.T) {
	// Two instances with the same namespace must register cleanly.
	a := NewMetrics("dup")
	b := NewMetrics("dup")
	a.ObserveExtraction("dom", time.Second)
	b.ObserveExtraction("dom", time.Second)
}
