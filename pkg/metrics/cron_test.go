package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	job := "ratelimit-sweep"
	m.Observe(job, 250*time.Millisecond, nil)
	m.Observe(job, 10*time.Millisecond, nil)
	m.Observe(job, time.Second, errors.New("redis down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_job_runs_total", "outcome", OutcomeSuccess); err != nil || got != 2 {
		t.Fatalf("expected success=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_job_runs_total", "outcome", OutcomeFailure); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "bakery_job_duration_seconds", "job", job); err != nil || got < 1.25 {
		t.Fatalf("expected duration sum >= 1.25s, got %f (%v)", got, err)
	}
}

func TestJobMetricsLastSuccessOnlyMovesOnSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.Observe("order-backlog", time.Millisecond, errors.New("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if findMetricFamily(mfs, "bakery_job_last_success_timestamp_seconds") != nil {
		t.Fatal("failed run must not export a last-success timestamp")
	}

	before := float64(time.Now().Unix())
	m.Observe("order-backlog", time.Millisecond, nil)
	mfs, err = reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "bakery_job_last_success_timestamp_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatal("expected one last-success gauge")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got < before {
		t.Fatalf("expected timestamp >= %f, got %f", before, got)
	}
}

func TestJobMetricsNilSafe(t *testing.T) {
	var m *JobMetrics
	m.Observe("x", time.Second, nil)
	NewJobMetrics(nil).Observe("x", time.Second, errors.New("boom"))
}

func TestOrderMetricsCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.Submitted(ResultAccepted)
	m.Submitted(ResultAccepted)
	m.Submitted(ResultRateLimited)
	m.Cancelled("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_orders_submitted_total", "result", ResultAccepted); err != nil || got != 2 {
		t.Fatalf("expected accepted=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_orders_submitted_total", "result", ResultRateLimited); err != nil || got != 1 {
		t.Fatalf("expected rate_limited=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_orders_cancelled_total", "result", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown cancel=1, got %f (%v)", got, err)
	}
}

func TestOrderMetricsBacklogGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.SetBacklog(BacklogPending, 4)
	m.SetBacklog(BacklogPending, 3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "bakery_orders_backlog" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "bucket" && label.GetValue() == BacklogPending {
					if got := metric.GetGauge().GetValue(); got != 3 {
						t.Fatalf("expected pending=3, got %f", got)
					}
					return
				}
			}
		}
	}
	t.Fatal("backlog gauge not exported")
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("POST", "/api/v1/orders", 201, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "bakery_http_requests_total", "status", "201"); err != nil || got != 1 {
		t.Fatalf("expected one 201, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "bakery_http_request_duration_seconds", "route", "/api/v1/orders"); err != nil || got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f (%v)", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
