package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *Registry, name string) *dto.MetricFamily {
	t.Helper()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabel(mf *dto.MetricFamily, name, value string) bool {
	for _, m := range mf.GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == name && label.GetValue() == value {
				return true
			}
		}
	}
	return false
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{0, "error"},
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("api.cryptowat.ch", tt.status, 0.01)

			mf := findMetric(t, reg, "cointools_http_requests_total")
			if mf == nil {
				t.Fatal("expected cointools_http_requests_total metric")
			}
			if !hasLabel(mf, "status", tt.expected) {
				t.Errorf("expected status label %s for status code %d", tt.expected, tt.status)
			}
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	mf := findMetric(t, reg, "cointools_http_requests_in_flight")
	if mf == nil {
		t.Fatal("expected cointools_http_requests_in_flight metric")
	}
	for _, m := range mf.GetMetric() {
		if m.GetGauge().GetValue() != 1 {
			t.Errorf("expected in-flight gauge to be 1, got %v", m.GetGauge().GetValue())
		}
	}
}

func TestRegistry_RecordProviderRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordProviderRequest("cryptowatch", "success", 0.123)
	reg.RecordProviderRequest("cryptowatch", "not_found", 0.05)

	mf := findMetric(t, reg, "cointools_provider_requests_total")
	if mf == nil {
		t.Fatal("expected cointools_provider_requests_total metric")
	}
	if !hasLabel(mf, "class", "not_found") {
		t.Error("expected class label not_found")
	}

	hist := findMetric(t, reg, "cointools_provider_request_duration_seconds")
	if hist == nil {
		t.Fatal("expected cointools_provider_request_duration_seconds metric")
	}
	for _, m := range hist.GetMetric() {
		if m.GetHistogram().GetSampleCount() != 2 {
			t.Errorf("expected sample count 2, got %d", m.GetHistogram().GetSampleCount())
		}
	}
}

func TestRegistry_ProviderCounters(t *testing.T) {
	reg := NewRegistry()

	reg.RecordProviderError("coincap", "NO_DATA")
	reg.RecordPage("coinmarketcap")
	reg.RecordPage("coinmarketcap")
	reg.RecordCacheLoad("cryptowatch", "exchanges")

	if mf := findMetric(t, reg, "cointools_provider_errors_total"); mf == nil || !hasLabel(mf, "kind", "NO_DATA") {
		t.Error("expected provider error with kind NO_DATA")
	}

	pages := findMetric(t, reg, "cointools_pages_fetched_total")
	if pages == nil {
		t.Fatal("expected cointools_pages_fetched_total metric")
	}
	if got := pages.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("expected 2 pages, got %v", got)
	}

	if mf := findMetric(t, reg, "cointools_cache_loads_total"); mf == nil || !hasLabel(mf, "cache", "exchanges") {
		t.Error("expected cache load for exchanges")
	}
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
