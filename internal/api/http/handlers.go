package http

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcommand/web"
)

// StatusSource reports the relay state shown by the health endpoint.
type StatusSource interface {
	Status() relay.Status
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string       `json:"status"`
	Service  string       `json:"service"`
	Version  string       `json:"version"`
	Instance string       `json:"instance"`
	Uptime   float64      `json:"uptime_seconds"`
	Relay    relay.Status `json:"relay"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	status   StatusSource
	assets   fs.FS
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	version  string
	instance string
	started  time.Time

	index  http.Handler
	static http.Handler
	root   http.Handler
}

// NewHandlers creates a new handler set. assets must contain the index
// page; a nil assets uses the embedded client.
func NewHandlers(status StatusSource, assets fs.FS, metrics *monitoring.Metrics, logger *zap.Logger, version string) *Handlers {
	if assets == nil {
		assets = web.Static()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handlers{
		status:   status,
		assets:   assets,
		metrics:  metrics,
		logger:   logger,
		version:  version,
		instance: uuid.NewString(),
		started:  time.Now(),
	}
	h.index = gzhttp.GzipHandler(http.HandlerFunc(h.serveIndex))
	files := gzhttp.GzipHandler(http.FileServerFS(assets))
	h.static = http.StripPrefix("/static", files)
	h.root = files
	return h
}

func (h *Handlers) serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.assets, web.IndexFile)
}

// Index serves the viewer page
func (h *Handlers) Index(c *gin.Context) {
	h.index.ServeHTTP(c.Writer, c.Request)
}

// Static serves the client asset bundle
func (h *Handlers) Static(c *gin.Context) {
	h.static.ServeHTTP(c.Writer, c.Request)
}

// Asset serves client files from the site root for paths no route
// claims. Only GET and HEAD are answered.
func (h *Handlers) Asset(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}
	h.root.ServeHTTP(c.Writer, c.Request)
}

// Health reports relay status
func (h *Handlers) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Service:  "web-command",
		Version:  h.version,
		Instance: h.instance,
		Uptime:   time.Since(h.started).Seconds(),
	}
	if h.status != nil {
		resp.Relay = h.status.Status()
	}

	body, err := sonic.Marshal(resp)
	if err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// Metrics serves the Prometheus exposition
func (h *Handlers) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Instance returns the identifier reported by Health
func (h *Handlers) Instance() string {
	return h.instance
}
