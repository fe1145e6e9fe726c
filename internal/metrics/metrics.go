package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/charon/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth flow metrics

	AuthOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charon",
		Name:      "auth_outcomes_total",
		Help:      "Auth flow outcomes, by operation and outcome.",
	}, []string{"operation", "outcome"})

	AuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charon",
		Name:      "auth_failures_total",
		Help:      "Failed auth flows, by operation and error kind.",
	}, []string{"operation", "kind"})

	ResetMailsSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "charon",
		Name:      "reset_mails_sent_total",
		Help:      "Password reset emails handed to the mail transport.",
	})

	// Reaper metrics

	ResetTokensReapedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "charon",
		Name:      "reset_tokens_reaped_total",
		Help:      "Expired reset tokens cleared by the reaper.",
	})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "charon",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "charon",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "charon",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		AuthOutcomesTotal,
		AuthFailuresTotal,
		ResetMailsSentTotal,
		ResetTokensReapedTotal,
		ReaperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// HealthChecker is satisfied by *health.Checker.
type HealthChecker interface {
	Liveness(ctx context.Context) health.HealthResult
	Readiness(ctx context.Context) health.HealthResult
}

// NewServer serves /metrics and, when checker is non-nil, /healthz and /readyz.
func NewServer(addr string, checker HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if checker != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeHealth(w, checker.Liveness(r.Context()))
		})
		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			writeHealth(w, checker.Readiness(r.Context()))
		})
	}
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, res health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if res.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(res)
}
