// Package telemetry provides OpenTelemetry metrics for the textlift
// service: request traffic, cache effectiveness, admission rejections and
// OCR latency.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to the service's metric instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	requests    metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	rateLimited metric.Int64Counter
	ocrFailures metric.Int64Counter

	// Histograms
	requestDuration metric.Float64Histogram
	ocrDuration     metric.Float64Histogram

	// Gauges (UpDownCounter in OpenTelemetry terms)
	inFlight metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/textlift/textlift",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider using the globally
// registered meter provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	meter := otel.GetMeterProvider().Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.requests, err = mp.meter.Int64Counter(
		"textlift.requests",
		metric.WithDescription("Number of HTTP requests handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	mp.cacheHits, err = mp.meter.Int64Counter(
		"textlift.cache.hits",
		metric.WithDescription("Number of result cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"textlift.cache.misses",
		metric.WithDescription("Number of result cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.rateLimited, err = mp.meter.Int64Counter(
		"textlift.ratelimit.rejections",
		metric.WithDescription("Number of requests rejected by the rate limiter"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return err
	}

	mp.ocrFailures, err = mp.meter.Int64Counter(
		"textlift.ocr.failures",
		metric.WithDescription("Number of failed OCR recognitions"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	mp.requestDuration, err = mp.meter.Float64Histogram(
		"textlift.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.ocrDuration, err = mp.meter.Float64Histogram(
		"textlift.ocr.duration",
		metric.WithDescription("OCR recognition duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.inFlight, err = mp.meter.Int64UpDownCounter(
		"textlift.requests.inflight",
		metric.WithDescription("Number of requests currently being handled"),
		metric.WithUnit("{request}"),
	)
	return err
}

// Error returns any error from instrument initialization.
func (mp *MetricsProvider) Error() error { return mp.initErr }

// RecordRequest records one handled HTTP request.
func (mp *MetricsProvider) RecordRequest(ctx context.Context, path string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	mp.requests.Add(ctx, 1, attrs)
	mp.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordCacheHit records a result cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context) {
	mp.cacheHits.Add(ctx, 1)
}

// RecordCacheMiss records a result cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context) {
	mp.cacheMisses.Add(ctx, 1)
}

// RecordRateLimited records a rejected admission.
func (mp *MetricsProvider) RecordRateLimited(ctx context.Context, clientIP string) {
	mp.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("client_ip", clientIP)))
}

// RecordOCR records the outcome and duration of one recognition.
func (mp *MetricsProvider) RecordOCR(ctx context.Context, engine string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	mp.ocrDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		mp.ocrFailures.Add(ctx, 1, attrs)
	}
}

// AddInFlight adjusts the in-flight request gauge.
func (mp *MetricsProvider) AddInFlight(ctx context.Context, delta int64) {
	mp.inFlight.Add(ctx, delta)
}
