package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// scrape fetches the exposition from Handler and parses it.
func scrape(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return families
}

// counterValue returns the value of the counter in family with label=value.
func counterValue(t *testing.T, families map[string]*dto.MetricFamily, family, label, value string) float64 {
	t.Helper()
	mf, ok := families[family]
	if !ok {
		t.Fatalf("family %s not exported", family)
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("%s{%s=%q} not found", family, label, value)
	return 0
}

func TestObservePrediction(t *testing.T) {
	m := New()
	m.ObservePrediction("Poor", 2*time.Millisecond)
	m.ObservePrediction("Poor", 3*time.Millisecond)
	m.ObservePrediction("Very Good", time.Millisecond)

	fams := scrape(t, m)
	if got := counterValue(t, fams, "creditlens_predictions_total", "rating", "Poor"); got != 2 {
		t.Errorf("Poor: got %v, want 2", got)
	}
	if got := counterValue(t, fams, "creditlens_predictions_total", "rating", "Very Good"); got != 1 {
		t.Errorf("Very Good: got %v, want 1", got)
	}

	h := fams["creditlens_prediction_duration_seconds"]
	if h == nil {
		t.Fatal("duration histogram not exported")
	}
	if n := h.GetMetric()[0].GetHistogram().GetSampleCount(); n != 3 {
		t.Errorf("duration samples: got %d, want 3", n)
	}
}

func TestObserveFailure(t *testing.T) {
	m := New()
	m.ObserveFailure(StageValidation, time.Millisecond)
	m.ObserveFailure(StageScoring, time.Millisecond)
	m.ObserveFailure(StageScoring, time.Millisecond)

	fams := scrape(t, m)
	if got := counterValue(t, fams, "creditlens_prediction_failures_total", "stage", StageValidation); got != 1 {
		t.Errorf("validation: got %v, want 1", got)
	}
	if got := counterValue(t, fams, "creditlens_prediction_failures_total", "stage", StageScoring); got != 2 {
		t.Errorf("scoring: got %v, want 2", got)
	}
}

func TestSetModelInfo(t *testing.T) {
	m := New()
	m.SetModelInfo("random_forest", "old")
	m.SetModelInfo("logistic_regression", "credit-v1")

	mf := scrape(t, m)["creditlens_model_info"]
	if mf == nil {
		t.Fatal("model_info not exported")
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("series: got %d, want 1", len(mf.GetMetric()))
	}
	labels := map[string]string{}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	if labels["kind"] != "logistic_regression" || labels["name"] != "credit-v1" {
		t.Errorf("labels: got %v, want kind=logistic_regression name=credit-v1", labels)
	}
}

func TestRuntimeCollectors(t *testing.T) {
	fams := scrape(t, New())
	if _, ok := fams["go_goroutines"]; !ok {
		t.Error("go_goroutines: not exported")
	}
}

func TestNilMetrics_NoOp(t *testing.T) {
	var m *Metrics
	m.ObservePrediction("Poor", time.Millisecond)
	m.ObserveFailure(StageScoring, time.Millisecond)
	m.SetModelInfo("k", "n")
	if m.Registry() != nil {
		t.Error("Registry on nil: got non-nil")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status: got %d, want 404", rec.Code)
	}
}
