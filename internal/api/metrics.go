package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lagerkasse_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lagerkasse_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	ledgerOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lagerkasse_ledger_operations_total",
		Help: "Ledger operations by kind and result.",
	}, []string{"operation", "result"})
)

// countLedgerOp records a ledger operation outcome for the metrics endpoint.
func countLedgerOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ledgerOpsTotal.WithLabelValues(operation, result).Inc()
}
