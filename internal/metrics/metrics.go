// Package metrics exposes Prometheus counters for content writes and
// playback sessions.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentSaves counts whole-document saves by document and outcome.
	DocumentSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymap_document_saves_total",
			Help: "Total number of places/routes document saves",
		},
		[]string{"document", "outcome"},
	)

	// Uploads counts media uploads by kind and outcome.
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymap_media_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"kind", "outcome"},
	)

	// JourneySessions tracks open playback websockets.
	JourneySessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storymap_journey_sessions",
		Help: "Number of open journey playback sessions",
	})

	// RequestDuration tracks API latency by route and status.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storymap_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware observes RequestDuration for every routed request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
