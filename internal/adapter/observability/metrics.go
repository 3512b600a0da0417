// Package observability provides logging, metrics, and tracing for the
// sourcing engine.
package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	SourceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_requests_total",
			Help: "Total number of source fetches by source and outcome",
		},
		[]string{"source", "outcome"},
	)
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Source fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)
	SourceCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_cache_hits_total",
			Help: "Total number of source cache hits",
		},
		[]string{"source"},
	)

	RateLimitWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_wait_seconds",
			Help:    "Time spent waiting on rate-limit token acquisition",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"source"},
	)
	ThrottleEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "throttle_events_total",
			Help: "Total number of upstream throttle reports",
		},
		[]string{"source"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by model and outcome",
		},
		[]string{"model", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"model"},
	)
	OutreachGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_generated_total",
			Help: "Total number of outreach messages generated by method",
		},
		[]string{"method"},
	)

	JobsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcing_jobs_started_total",
			Help: "Total number of sourcing jobs admitted",
		},
	)
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_jobs_completed_total",
			Help: "Total number of sourcing jobs completed",
		},
		[]string{"outcome"},
	)
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sourcing_jobs_in_flight",
			Help: "Number of sourcing jobs currently processing",
		},
	)
	CandidatesFound = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcing_candidates_found",
			Help:    "Distribution of candidates found per job",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
	FitScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sourcing_fit_score",
			Help:    "Distribution of fit scores [0,10]",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration,
		SourceRequestsTotal, SourceFetchDuration, SourceCacheHitsTotal,
		RateLimitWaitSeconds, ThrottleEventsTotal,
		AIRequestsTotal, AIRequestDuration, OutreachGeneratedTotal,
		JobsStartedTotal, JobsCompletedTotal, JobsInFlight,
		CandidatesFound, FitScoreHistogram,
	)
}

// HTTPMetricsMiddleware records request counts and latency per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
