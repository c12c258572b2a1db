package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// URL resolution modes.
const (
	ResolvePassthrough    = "passthrough"
	ResolveSigned         = "signed"
	ResolvePublic         = "public"
	ResolvePublicFallback = "public_fallback"
)

var (
	registry = prometheus.NewRegistry()

	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_uploads_total",
		Help: "Uploads handled, by kind (image, profile) and outcome.",
	}, []string{"kind", "outcome"})

	deletesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_image_deletes_total",
		Help: "Image deletions, by outcome.",
	}, []string{"outcome"})

	bestEffortFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_best_effort_failures_total",
		Help: "Best-effort steps that failed and were ignored, by step.",
	}, []string{"step"})

	urlResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_url_resolutions_total",
		Help: "Storage reference resolutions, by mode.",
	}, []string{"mode"})

	sweptFiles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_upload_buffer_swept_total",
		Help: "Stale transient upload files removed by the sweeper.",
	})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route", "status"})
)

func init() {
	registry.MustRegister(
		uploadsTotal,
		deletesTotal,
		bestEffortFailures,
		urlResolutions,
		sweptFiles,
		requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncUpload counts an upload attempt of the given kind.
func IncUpload(kind, outcome string) {
	uploadsTotal.WithLabelValues(kind, outcome).Inc()
}

// IncDelete counts an image deletion attempt.
func IncDelete(outcome string) {
	deletesTotal.WithLabelValues(outcome).Inc()
}

// IncBestEffortFailure counts an ignored failure of a best-effort step.
func IncBestEffortFailure(step string) {
	bestEffortFailures.WithLabelValues(step).Inc()
}

// IncURLResolution counts how a storage reference was turned into a URL.
func IncURLResolution(mode string) {
	urlResolutions.WithLabelValues(mode).Inc()
}

// AddSwept counts removed stale upload files.
func AddSwept(n int) {
	if n > 0 {
		sweptFiles.Add(float64(n))
	}
}

// ObserveRequest records a completed HTTP request.
func ObserveRequest(method, route string, status int, latency time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
