package core

import (
	"context"
	"time"

	"catalogcore/internal/blob"
)

// Clock supplies the current time to the service. Operations stamp entity
// timestamps and audit entries through it so tests can freeze time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// MetricsRecorder observes per-operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan ends an operation span.
type TraceSpan interface {
	End(err error)
}

// Tracer starts operation spans.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type serviceOptions struct {
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	blobs   blob.Store
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:  systemClock{},
		logger: noopLogger{},
	}
}

// Option customizes service construction.
type Option func(*serviceOptions)

// WithClock overrides the time source used for entity and audit timestamps.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger installs a structured logger for operation outcomes.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder installs a metrics sink for operation timings.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(o *serviceOptions) {
		o.metrics = recorder
	}
}

// WithTracer installs a tracer wrapping each service operation in a span.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		o.tracer = tracer
	}
}

// WithAuditRecorder installs an audit sink receiving one entry per operation.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(o *serviceOptions) {
		o.audit = recorder
	}
}

// WithBlobStore installs the attachment store backing documentation bodies
// held out of band.
func WithBlobStore(store blob.Store) Option {
	return func(o *serviceOptions) {
		o.blobs = store
	}
}
