// Package telemetry exposes prometheus metrics for engine operations
// and HTTP traffic. Counters are labeled by operation and outcome so
// dashboards can separate contract rejections from store failures.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/store"
)

var (
	opsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reciprodb_engine_ops_total",
		Help: "Engine operations by name and outcome.",
	}, []string{"op", "outcome"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reciprodb_http_request_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	storeDiskBytes = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "reciprodb_store_disk_bytes",
		Help: "On-disk size of the ledger store.",
	}, func() float64 {
		return float64(store.GetUsage().DiskBytes)
	})
)

func init() {
	prometheus.MustRegister(opsTotal, httpDuration, storeDiskBytes)
}

// RecordOp counts one engine operation, classifying the error into the
// taxonomy outcome labels.
func RecordOp(op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case apperr.IsValidation(err):
		outcome = "validation"
	case apperr.IsNotFound(err):
		outcome = "not_found"
	case apperr.IsBusinessRule(err):
		outcome = "business_rule"
	default:
		outcome = "error"
	}
	opsTotal.WithLabelValues(op, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware times every request and records its status code.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
