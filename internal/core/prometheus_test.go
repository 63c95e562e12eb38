package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.Observe(context.Background(), "create_component", true, 25*time.Millisecond)
	rec.Observe(context.Background(), "create_component", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawCounter, sawHistogram bool
	for _, family := range families {
		switch family.GetName() {
		case "catalog_operations_total":
			sawCounter = true
			var total float64
			for _, metric := range family.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
			if total != 2 {
				t.Fatalf("expected 2 observations, got %v", total)
			}
		case "catalog_operation_duration_seconds":
			sawHistogram = true
			for _, metric := range family.GetMetric() {
				if metric.GetHistogram().GetSampleCount() != 2 {
					t.Fatalf("expected 2 samples, got %d", metric.GetHistogram().GetSampleCount())
				}
			}
		}
	}
	if !sawCounter || !sawHistogram {
		t.Fatalf("expected both metric families, got %v", families)
	}

	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestServiceWithPrometheusRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(rec))
	mustCreateComponent(t, svc)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, family := range families {
		if family.GetName() != "catalog_operations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "operation" && label.GetValue() == "create_component" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected create_component series")
	}
}
