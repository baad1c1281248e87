package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"datolab/autoseo/pkg/config"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	enabled := true
	return &config.MetricsConfig{
		Enabled:        &enabled,
		Namespace:      "test",
		LatencyBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != "autoseo" {
		t.Errorf("Expected namespace autoseo, got %q", cfg.Namespace)
	}
	if len(cfg.LatencyBuckets) == 0 {
		t.Error("Expected default latency buckets")
	}
	if collector.Registry() == nil {
		t.Error("Expected a registry to be created")
	}
}

func TestCollector_ProviderMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordAttempt("openai", "http_error", 200*time.Millisecond)
	collector.RecordAttempt("openai", "success", 300*time.Millisecond)
	collector.RecordCall("openai", "success")
	collector.RecordCall("cohere", "exhausted_retries")

	pm := collector.providerMetrics
	if got := testutil.ToFloat64(pm.attempts.WithLabelValues("openai", "http_error")); got != 1 {
		t.Errorf("Expected 1 failed attempt, got %v", got)
	}
	if got := testutil.ToFloat64(pm.requests.WithLabelValues("cohere", "exhausted_retries")); got != 1 {
		t.Errorf("Expected 1 exhausted call, got %v", got)
	}
	if got := testutil.CollectAndCount(pm.latency); got != 1 {
		t.Errorf("Expected 1 latency series, got %d", got)
	}
}

func TestCollector_LimiterMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordDecision("openai", true)
	collector.RecordDecision("openai", true)
	collector.RecordDecision("openai", false)
	collector.RecordLimit("openai", 90)

	lm := collector.limiterMetrics
	if got := testutil.ToFloat64(lm.decisions.WithLabelValues("openai", "allowed")); got != 2 {
		t.Errorf("Expected 2 allowed decisions, got %v", got)
	}
	if got := testutil.ToFloat64(lm.decisions.WithLabelValues("openai", "denied")); got != 1 {
		t.Errorf("Expected 1 denied decision, got %v", got)
	}
	if got := testutil.ToFloat64(lm.limit.WithLabelValues("openai")); got != 90 {
		t.Errorf("Expected limit 90, got %v", got)
	}
}

func TestCollector_LogMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordLogEntry("error")
	collector.RecordLogEntry("info")
	collector.RecordLogEntry("info")
	collector.RecordLogRotation()
	collector.RecordAlert(true)
	collector.RecordAlert(false)

	lm := collector.logMetrics
	if got := testutil.ToFloat64(lm.entries.WithLabelValues("info")); got != 2 {
		t.Errorf("Expected 2 info entries, got %v", got)
	}
	if got := testutil.ToFloat64(lm.rotations); got != 1 {
		t.Errorf("Expected 1 rotation, got %v", got)
	}
	if got := testutil.ToFloat64(lm.alerts.WithLabelValues("failed")); got != 1 {
		t.Errorf("Expected 1 failed alert, got %v", got)
	}
}

func TestCollector_DriverMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordItem("processed")
	collector.RecordTerms("tag", 3)
	collector.RecordTerms("category", 0)
	collector.RecordRejected("tag", 2)
	collector.RecordRun(4 * time.Second)

	dm := collector.driverMetrics
	if got := testutil.ToFloat64(dm.items.WithLabelValues("processed")); got != 1 {
		t.Errorf("Expected 1 processed item, got %v", got)
	}
	if got := testutil.ToFloat64(dm.terms.WithLabelValues("tag")); got != 3 {
		t.Errorf("Expected 3 tags, got %v", got)
	}
	if got := testutil.CollectAndCount(dm.terms); got != 1 {
		t.Errorf("Expected zero-count kinds to be skipped, got %d series", got)
	}
	if got := testutil.ToFloat64(dm.rejected.WithLabelValues("tag")); got != 2 {
		t.Errorf("Expected 2 rejected tags, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.Enabled = &disabled
	collector := NewCollector(cfg, nil)

	collector.RecordCall("openai", "success")
	collector.RecordLogEntry("info")

	if got := testutil.CollectAndCount(collector.providerMetrics.requests); got != 0 {
		t.Errorf("Expected no series when disabled, got %d", got)
	}
	if got := testutil.CollectAndCount(collector.logMetrics.entries); got != 0 {
		t.Errorf("Expected no series when disabled, got %d", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var collector *Collector
	collector.RecordCall("openai", "success")
	collector.RecordAlert(true)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordCall("anthropic", "success")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_provider_requests_total{outcome="success",provider="anthropic"} 1`) {
		t.Errorf("Expected provider counter in output, got:\n%s", rec.Body.String())
	}
}
