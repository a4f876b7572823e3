package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "synapse_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	signatureOps   *prometheus.CounterVec
	mappingOps     *prometheus.CounterVec
	mappingErrors  *prometheus.CounterVec
	matchTotal     *prometheus.CounterVec
	matchLatency   *prometheus.HistogramVec
	categorizeSize prometheus.Histogram
	reportTotal    *prometheus.CounterVec
	reportLatency  *prometheus.HistogramVec
	cxalloyTotal   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
)

// Init registers metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		signatureOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "signature_operations_total",
				Help: "Signature registry operations by op and result",
			},
			[]string{"op", "result"},
		)
		mappingOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mapping_operations_total",
				Help: "Mapping transitions by op and result",
			},
			[]string{"op", "result"},
		)
		mappingErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mapping_errors_total",
				Help: "Failed mapping transitions by reason",
			},
			[]string{"reason"},
		)
		matchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "match_queries_total",
				Help: "Matching queries by kind and result",
			},
			[]string{"kind", "result"},
		)
		matchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "match_latency_seconds",
				Help:    "Matching query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		)
		categorizeSize = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "categorize_batch_points",
				Help:    "Points per categorization batch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		)
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Review report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Review report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)
		cxalloyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cxalloy_requests_total",
				Help: "CxAlloy API requests by result",
			},
			[]string{"result"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)

		prometheus.MustRegister(
			signatureOps,
			mappingOps,
			mappingErrors,
			matchTotal,
			matchLatency,
			categorizeSize,
			reportTotal,
			reportLatency,
			cxalloyTotal,
			httpRequests,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// IncSignatureOp counts a registry operation.
func IncSignatureOp(op string, err error) {
	if op == "" {
		op = "unknown"
	}
	if signatureOps != nil {
		signatureOps.WithLabelValues(op, resultOf(err)).Inc()
	}
}

// IncMappingOp counts a mapping transition.
func IncMappingOp(op string, err error) {
	if op == "" {
		op = "unknown"
	}
	if mappingOps != nil {
		mappingOps.WithLabelValues(op, resultOf(err)).Inc()
	}
}

// IncMappingError counts a failed mapping transition by reason.
func IncMappingError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if mappingErrors != nil {
		mappingErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveMatch records a matching query.
func ObserveMatch(kind string, err error, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if matchTotal != nil {
		matchTotal.WithLabelValues(kind, resultOf(err)).Inc()
	}
	if matchLatency != nil {
		matchLatency.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// ObserveCategorizeBatch records the size of a categorization batch.
func ObserveCategorizeBatch(size int) {
	if size < 0 {
		size = 0
	}
	if categorizeSize != nil {
		categorizeSize.Observe(float64(size))
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// IncCxAlloyRequest counts an outbound CxAlloy request.
func IncCxAlloyRequest(err error) {
	if cxalloyTotal != nil {
		cxalloyTotal.WithLabelValues(resultOf(err)).Inc()
	}
}

// IncHTTPRequest counts a served request.
func IncHTTPRequest(method, status string) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
