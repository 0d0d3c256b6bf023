package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcommand/internal/shared/id"
)

// Handler manages WebSocket connections
type Handler struct {
	broadcaster *relay.Broadcaster
	input       relay.InputHandler
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// NewHandler creates a handler that joins every connection to b and hands
// inbound messages to input. A nil input discards them.
func NewHandler(b *relay.Broadcaster, input relay.InputHandler, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if input == nil {
		input = relay.DiscardInput
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		broadcaster: b,
		input:       input,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Viewers may load the page from any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
	}
}

// HandleConnection upgrades the request, replays the buffer and streams
// output until the peer disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	remote := c.Request.RemoteAddr
	client := newClient(id.NewClientID().String(), conn, h.logger)
	go client.writePump()

	if err := h.broadcaster.Join(client); err != nil {
		h.logger.Warn("Failed to join client", zap.String("remote", remote), zap.Error(err))
		client.Close()
		return
	}
	h.logger.Info("Client connected",
		zap.String("client", client.ID()),
		zap.String("remote", remote),
	)

	defer func() {
		h.broadcaster.Leave(client)
		client.Close()
		h.logger.Info("Client disconnected",
			zap.String("client", client.ID()),
			zap.String("remote", remote),
		)
	}()

	ctx := c.Request.Context()
	client.readPump(func(data []byte) {
		h.metrics.AddClientInput(len(data))
		if err := h.input.OnClientInput(ctx, client.ID(), data); err != nil {
			h.logger.Debug("Client input rejected", zap.String("client", client.ID()), zap.Error(err))
		}
	})
}
