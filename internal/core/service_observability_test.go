package core

import (
	"context"
	"testing"
	"time"

	"catalogcore/pkg/domain"
)

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	audit := NewMemoryAuditRecorder()
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}

	svc := NewInMemoryService(NewDefaultRulesEngine(),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
		WithClock(ClockFunc(func() time.Time { return fixed })),
	)

	component := mustCreateComponent(t, svc)

	if !metrics.has("create_component", true) {
		t.Fatalf("expected success metric for create_component, got %v", metrics.calls)
	}
	if len(tracer.started) == 0 || tracer.started[0] != "create_component" {
		t.Fatalf("expected trace span for create_component, got %v", tracer.started)
	}

	entries := audit.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Operation != "create_component" {
		t.Fatalf("unexpected operation %s", entry.Operation)
	}
	if entry.Entity != domain.EntityComponent || entry.Action != domain.ActionCreate {
		t.Fatalf("unexpected audit metadata %+v", entry)
	}
	if entry.EntityID != component.ID {
		t.Fatalf("expected entity id %s, got %s", component.ID, entry.EntityID)
	}
	if entry.Status != AuditStatusSuccess {
		t.Fatalf("expected success status, got %s", entry.Status)
	}
	if !entry.OccurredAt.Equal(fixed) {
		t.Fatalf("expected clock timestamp, got %v", entry.OccurredAt)
	}

	if _, _, err := svc.CreateComponent(ctx, Component{Classification: "bad"}); err == nil {
		t.Fatalf("expected failure")
	}
	if !metrics.has("create_component", false) {
		t.Fatalf("expected error metric, got %v", metrics.calls)
	}
	entries = audit.Entries()
	last := entries[len(entries)-1]
	if last.Status != AuditStatusError || last.Error == "" {
		t.Fatalf("expected error audit entry, got %+v", last)
	}
	var sawError bool
	for _, call := range logger.calls {
		if call == "e:operation failed" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected error log, got %v", logger.calls)
	}
	var sawFailedSpan bool
	for _, record := range tracer.ended {
		if record.op == "create_component" && record.err != nil {
			sawFailedSpan = true
		}
	}
	if !sawFailedSpan {
		t.Fatalf("expected failed span, got %v", tracer.ended)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("expected generated name")
	}
	rec.Observe(context.Background(), "create_component", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "create_component", false, 10*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["create_component"] != 30 {
		t.Fatalf("expected 30ms total, got %v", snap.DurationsMS)
	}
	if snap.Results["create_component"]["success"] != 1 || snap.Results["create_component"]["error"] != 1 {
		t.Fatalf("unexpected counters %v", snap.Results)
	}
}

func TestJSONTracer(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), "create_instance")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "create_connection")
	span.End(context.DeadlineExceeded)

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected statuses %+v", entries)
	}
	if entries[1].Error == "" {
		t.Fatalf("expected error message on failed span")
	}
}

func TestNoopLoggerDoesNothing(t *testing.T) {
	var logger noopLogger
	logger.Debug("m")
	logger.Info("m")
	logger.Warn("m")
	logger.Error("m")
}
