package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector owns the service metrics. It implements
// broadcast.Observer for hub events.
type PrometheusCollector struct {
	viewersConnected   prometheus.Gauge
	viewersRegistered  prometheus.Counter
	viewerDisconnects  *prometheus.CounterVec
	broadcastsTotal    prometheus.Counter
	deliveriesTotal    prometheus.Counter
	broadcastFanout    prometheus.Histogram
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

// NewPrometheusCollector registers the metrics on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		viewersConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "camwatch_viewers_connected",
			Help: "Number of live viewers registered with the broadcast hub",
		}),

		viewersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "camwatch_viewers_registered_total",
			Help: "Total number of viewer registrations",
		}),

		viewerDisconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "camwatch_viewer_disconnects_total",
			Help: "Viewers removed from the hub, by reason",
		}, []string{"reason"}),

		broadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "camwatch_broadcasts_total",
			Help: "Total number of alerts broadcast to viewers",
		}),

		deliveriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "camwatch_broadcast_deliveries_total",
			Help: "Total number of per-viewer deliveries queued",
		}),

		broadcastFanout: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "camwatch_broadcast_fanout",
			Help:    "Viewers reached per broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "camwatch_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		httpRequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camwatch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

func (p *PrometheusCollector) ViewerRegistered(total int) {
	p.viewersRegistered.Inc()
	p.viewersConnected.Set(float64(total))
}

func (p *PrometheusCollector) ViewerUnregistered(total int, reason string) {
	p.viewerDisconnects.WithLabelValues(reason).Inc()
	p.viewersConnected.Set(float64(total))
}

func (p *PrometheusCollector) Broadcasted(delivered int) {
	p.broadcastsTotal.Inc()
	p.deliveriesTotal.Add(float64(delivered))
	p.broadcastFanout.Observe(float64(delivered))
}

// HTTPMiddleware records request counts and latency per matched route.
func (p *PrometheusCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		p.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.httpRequestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
