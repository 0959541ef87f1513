package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	GenerationCallsTotal      metric.Int64Counter
	GenerationErrorsTotal     metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	OutlineDetailsParsed      metric.Int64Counter
	CoverLookupsTotal         metric.Int64Counter
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments only once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tripforge")
		var err error
		m := &AppMetrics{}

		m.GenerationCallsTotal, err = meter.Int64Counter(
			"generation_calls_total",
			metric.WithDescription("Total number of generation-service requests issued"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_calls_total: %v", err)
		}

		m.GenerationErrorsTotal, err = meter.Int64Counter(
			"generation_errors_total",
			metric.WithDescription("Total number of failed generation-service requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_errors_total: %v", err)
		}

		m.GenerationDurationSeconds, err = meter.Float64Histogram(
			"generation_duration_seconds",
			metric.WithDescription("Duration of generation-service requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_duration_seconds: %v", err)
		}

		m.OutlineDetailsParsed, err = meter.Int64Counter(
			"outline_details_parsed_total",
			metric.WithDescription("Total number of detail records extracted from outlines"),
			metric.WithUnit("{detail}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create outline_details_parsed_total: %v", err)
		}

		m.CoverLookupsTotal, err = meter.Int64Counter(
			"cover_lookups_total",
			metric.WithDescription("Total number of cover photo searches"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cover_lookups_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of failed database operations"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance. InitAppMetrics must run first.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
