package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value reads the current value of a single-series counter or gauge.
func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.ClientJoined()
	assert.Equal(t, float64(1), value(t, m1.ClientsConnected))
	assert.Equal(t, float64(0), value(t, m2.ClientsConnected))
}

func TestClientAndProcessMetrics(t *testing.T) {
	m := NewMetrics()

	m.ClientJoined()
	m.ClientJoined()
	m.ClientLeft()
	m.RecordClientDrop(DropSendFailed)
	assert.Equal(t, float64(1), value(t, m.ClientsConnected))
	assert.Equal(t, float64(2), value(t, m.ClientJoins))
	assert.Equal(t, float64(1), value(t, m.ClientDrops.WithLabelValues(DropSendFailed)))

	m.RecordBroadcast(10, 7)
	m.RecordBroadcast(5, 10)
	assert.Equal(t, float64(15), value(t, m.BytesBroadcast))
	assert.Equal(t, float64(10), value(t, m.BufferBytes))

	m.ProcessStarted()
	assert.Equal(t, float64(1), value(t, m.ProcessActive))
	m.ProcessExited(OutcomeFailure)
	assert.Equal(t, float64(0), value(t, m.ProcessActive))
	assert.Equal(t, float64(1), value(t, m.ProcessExits.WithLabelValues(OutcomeFailure)))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ClientJoined()
		m.ClientLeft()
		m.RecordBroadcast(1, 1)
		m.ProcessStarted()
		m.ProcessExited(OutcomeSuccess)
		m.IncSpawnFailures()
		m.IncRestarts()
		m.AddClientInput(3)
		m.AddLocalInput(3)
		m.RecordClientDrop(DropShutdown)
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), value(t, m.RequestsTotal.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "webcommand_http_requests_total")
	assert.Contains(t, w.Body.String(), "webcommand_uptime_seconds")
}
