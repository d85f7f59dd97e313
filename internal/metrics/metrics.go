package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/citymarket/marketplace/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics

	LoginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "login_attempts_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	SignupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "signups_total",
		Help:      "Accounts created.",
	})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by route.",
	}, []string{"route"})

	// Listing metrics

	ScopeIntegrityViolationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "scope_integrity_violations_total",
		Help:      "Listing writes aborted because the stored city did not match the session city.",
	}, []string{"op"})

	ImagesUploadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "images_uploaded_total",
		Help:      "Listing images uploaded.",
	})

	// Sweeper metrics

	ListingsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "listings_expired_total",
		Help:      "Listings moved from ACTIVE to EXPIRED by the sweeper.",
	})

	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "sweep_duration_seconds",
		Help:      "Time taken for one sweeper run.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "route", "status"})
)

func Register() {
	prometheus.MustRegister(
		LoginAttemptsTotal,
		SignupsTotal,
		RateLimitedTotal,
		ScopeIntegrityViolationsTotal,
		ImagesUploadedTotal,
		ListingsExpiredTotal,
		SweepDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// HealthReporter is satisfied by *health.Checker.
type HealthReporter interface {
	Liveness(ctx context.Context) health.HealthResult
	Readiness(ctx context.Context) health.HealthResult
}

// NewServer serves /metrics and, when checker is non-nil, the health probes.
func NewServer(addr string, checker HealthReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if checker != nil {
		mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
			writeHealth(w, checker.Liveness(r.Context()))
		})
		mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
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
