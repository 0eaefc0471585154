// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
	// 并发名额等待超时被拒绝的请求
	HTTPRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "http_requests_rejected_total", Help: "Requests rejected because no in-flight slot freed up in time"},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "crm_login_attempts_total", Help: "Login attempts by result"},
		[]string{"result"},
	)
	ActivityAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "crm_lead_activity_append_failures_total", Help: "Lead activity rows that failed to append"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, HTTPRejected, LoginAttempts, ActivityAppendFailures)
}

func Handler() http.Handler { return promhttp.Handler() }
