package rpc

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

// Metrics holds the Prometheus collectors for remote calls.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the call collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "armgate",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Remote calls by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "armgate",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Remote call latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

func (m *Metrics) observe(method, outcome string, d time.Duration) {
	m.calls.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

// Instrumented decorates a Caller with structured call events and metrics.
// It emits, per call, the method name, duration, success flag and failure
// message; log format and storage stay with the logging backend.
type Instrumented struct {
	next    Caller
	logger  *zap.Logger
	metrics *Metrics
}

// NewInstrumented wraps next. logger and metrics may be shared across
// wrappers; neither may be nil.
func NewInstrumented(next Caller, logger *zap.Logger, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, logger: logger, metrics: metrics}
}

func (i *Instrumented) Call(ctx context.Context, method string, args []any, reply any) error {
	start := time.Now()
	err := i.next.Call(ctx, method, args, reply)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(apierr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	i.metrics.observe(method, outcome, elapsed)

	fields := []zap.Field{
		zap.String("method", method),
		zap.Duration("duration", elapsed),
		zap.Bool("success", err == nil),
	}
	if err != nil {
		fields = append(fields, zap.String("message", apierr.Message(err)))
		i.logger.Warn("rpc call failed", fields...)
		return err
	}
	i.logger.Debug("rpc call", fields...)
	return nil
}
