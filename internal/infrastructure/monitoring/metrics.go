package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exit outcomes recorded for a supervised process
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeUnknown = "unknown"
)

// Client drop reasons
const (
	DropSendFailed = "send_failed"
	DropShutdown   = "shutdown"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Client metrics
	ClientsConnected prometheus.Gauge
	ClientJoins      prometheus.Counter
	ClientDrops      *prometheus.CounterVec
	ClientInputBytes prometheus.Counter

	// Broadcast metrics
	BytesBroadcast prometheus.Counter
	BufferBytes    prometheus.Gauge
	LocalInput     prometheus.Counter

	// Process metrics
	ProcessStarts   prometheus.Counter
	ProcessExits    *prometheus.CounterVec
	SpawnFailures   prometheus.Counter
	ProcessActive   prometheus.Gauge
	ProcessRestarts prometheus.Counter

	startTime time.Time
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several relays can live in one process (and in one test binary).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webcommand_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webcommand_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Client metrics
		ClientsConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webcommand_clients_connected",
				Help: "Number of connected relay clients",
			},
		),
		ClientJoins: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_client_joins_total",
				Help: "Total number of clients that joined the relay",
			},
		),
		ClientDrops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webcommand_client_drops_total",
				Help: "Total number of clients removed by the server",
			},
			[]string{"reason"},
		),
		ClientInputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_client_input_bytes_total",
				Help: "Bytes received from remote clients",
			},
		),

		// Broadcast metrics
		BytesBroadcast: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_broadcast_bytes_total",
				Help: "Bytes passed through the broadcaster",
			},
		),
		BufferBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webcommand_replay_buffer_bytes",
				Help: "Bytes currently held in the replay buffer",
			},
		),
		LocalInput: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_local_input_bytes_total",
				Help: "Bytes read from local standard input",
			},
		),

		// Process metrics
		ProcessStarts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_process_starts_total",
				Help: "Total number of process spawns",
			},
		),
		ProcessExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webcommand_process_exits_total",
				Help: "Total number of process exits by outcome",
			},
			[]string{"outcome"},
		),
		SpawnFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_spawn_failures_total",
				Help: "Total number of failed spawn attempts",
			},
		),
		ProcessActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webcommand_process_active",
				Help: "1 while a supervised process is running",
			},
		),
		ProcessRestarts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webcommand_process_restarts_total",
				Help: "Total number of restart waits entered",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "webcommand_uptime_seconds",
			Help: "Relay uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Uptime returns the time since the collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ClientJoined records a client added to the registry
func (m *Metrics) ClientJoined() {
	if m == nil {
		return
	}
	m.ClientJoins.Inc()
	m.ClientsConnected.Inc()
}

// ClientLeft records a client removed from the registry
func (m *Metrics) ClientLeft() {
	if m == nil {
		return
	}
	m.ClientsConnected.Dec()
}

// RecordClientDrop records a client the server removed on its own
func (m *Metrics) RecordClientDrop(reason string) {
	if m == nil {
		return
	}
	m.ClientDrops.WithLabelValues(reason).Inc()
}

// RecordBroadcast records bytes fanned out and the resulting buffer size
func (m *Metrics) RecordBroadcast(n, buffered int) {
	if m == nil {
		return
	}
	m.BytesBroadcast.Add(float64(n))
	m.BufferBytes.Set(float64(buffered))
}

// AddClientInput records bytes received from a remote client
func (m *Metrics) AddClientInput(n int) {
	if m == nil {
		return
	}
	m.ClientInputBytes.Add(float64(n))
}

// AddLocalInput records bytes read from standard input
func (m *Metrics) AddLocalInput(n int) {
	if m == nil {
		return
	}
	m.LocalInput.Add(float64(n))
}

// ProcessStarted records a successful spawn
func (m *Metrics) ProcessStarted() {
	if m == nil {
		return
	}
	m.ProcessStarts.Inc()
	m.ProcessActive.Set(1)
}

// ProcessExited records the end of a supervised process
func (m *Metrics) ProcessExited(outcome string) {
	if m == nil {
		return
	}
	m.ProcessExits.WithLabelValues(outcome).Inc()
	m.ProcessActive.Set(0)
}

// IncSpawnFailures increments the failed spawn counter
func (m *Metrics) IncSpawnFailures() {
	if m == nil {
		return
	}
	m.SpawnFailures.Inc()
}

// IncRestarts increments the restart counter
func (m *Metrics) IncRestarts() {
	if m == nil {
		return
	}
	m.ProcessRestarts.Inc()
}
