package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod = "method"
	attrPath   = "path"
	attrStatus = "status"
	attrAction = "action"
)

// Metrics provides methods for recording observability metrics. A nil
// *Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Reconciliation metrics
	reconcilePassesTotal metric.Int64Counter
	reconcilePassTime    metric.Float64Histogram
	reconcileActions     metric.Int64Counter

	// Watch channel metrics
	watchChannelsActive metric.Int64UpDownCounter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.reconcilePassesTotal, err = meter.Int64Counter(
		"reconcile_passes_total",
		metric.WithDescription("Total number of reconciliation passes"),
		metric.WithUnit("{pass}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_passes_total counter: %w", err)
	}

	m.reconcilePassTime, err = meter.Float64Histogram(
		"reconcile_pass_duration_seconds",
		metric.WithDescription("Reconciliation pass duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_pass_duration_seconds histogram: %w", err)
	}

	m.reconcileActions, err = meter.Int64Counter(
		"reconcile_actions_total",
		metric.WithDescription("Total number of calendar edits by reconciliation action"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile_actions_total counter: %w", err)
	}

	m.watchChannelsActive, err = meter.Int64UpDownCounter(
		"watch_channels_active",
		metric.WithDescription("Number of active calendar watch channels"),
		metric.WithUnit("{channel}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create watch_channels_active gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.Int(attrStatus, status),
	)
	m.httpRequestsTotal.Add(context.Background(), 1, attrs)
	m.httpRequestDuration.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordPass records one reconciliation pass.
func (m *Metrics) RecordPass(status string, duration time.Duration) {
	if m == nil || m.reconcilePassesTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.reconcilePassesTotal.Add(context.Background(), 1, attrs)
	m.reconcilePassTime.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordAction records one dispatched reconciliation action.
func (m *Metrics) RecordAction(action, status string) {
	if m == nil || m.reconcileActions == nil {
		return
	}
	m.reconcileActions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrStatus, status),
	))
}

// AddWatchChannels adjusts the active watch channel gauge.
func (m *Metrics) AddWatchChannels(delta int64) {
	if m == nil || m.watchChannelsActive == nil {
		return
	}
	m.watchChannelsActive.Add(context.Background(), delta)
}
