package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive      prometheus.Gauge
	SessionsOpened      prometheus.Counter
	SessionInitFailures prometheus.Counter

	// Frame metrics
	FramesForwarded prometheus.Counter
	FramesDropped   prometheus.Counter
	FrameBytes      prometheus.Histogram

	// Input metrics
	InputEvents *prometheus.CounterVec
	InputErrors *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecast_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagecast_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Session metrics
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagecast_sessions_active",
				Help: "Number of active browser sessions",
			},
		),
		SessionsOpened: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pagecast_sessions_opened_total",
				Help: "Total number of browser sessions opened",
			},
		),
		SessionInitFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pagecast_session_init_failures_total",
				Help: "Total number of failed session initializations",
			},
		),

		// Frame metrics
		FramesForwarded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pagecast_frames_forwarded_total",
				Help: "Total number of frames forwarded to clients",
			},
		),
		FramesDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pagecast_frames_dropped_total",
				Help: "Total number of frames dropped due to slow clients",
			},
		),
		FrameBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagecast_frame_bytes",
				Help:    "Size of forwarded frames in bytes",
				Buckets: []float64{1000, 10000, 50000, 100000, 250000, 500000, 1000000},
			},
		),

		// Input metrics
		InputEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecast_input_events_total",
				Help: "Total number of dispatched input events",
			},
			[]string{"kind"},
		),
		InputErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecast_input_errors_total",
				Help: "Total number of failed input dispatches",
			},
			[]string{"kind"},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagecast_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagecast_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pagecast_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// RecordInputEvent records a dispatched input event
func (m *Metrics) RecordInputEvent(kind string) {
	m.InputEvents.WithLabelValues(kind).Inc()
}

// RecordInputError records a failed input dispatch
func (m *Metrics) RecordInputError(kind string) {
	m.InputErrors.WithLabelValues(kind).Inc()
}

// SetSessionsActive sets the number of active sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
}

// IncSessionsOpened increments the opened-sessions counter
func (m *Metrics) IncSessionsOpened() {
	m.SessionsOpened.Inc()
}

// IncSessionInitFailures increments the init-failure counter
func (m *Metrics) IncSessionInitFailures() {
	m.SessionInitFailures.Inc()
}

// IncFramesForwarded increments the forwarded-frame counter
func (m *Metrics) IncFramesForwarded() {
	m.FramesForwarded.Inc()
}

// IncFramesDropped increments the dropped-frame counter
func (m *Metrics) IncFramesDropped() {
	m.FramesDropped.Inc()
}

// ObserveFrameBytes records the size of a forwarded frame
func (m *Metrics) ObserveFrameBytes(n int) {
	m.FrameBytes.Observe(float64(n))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
