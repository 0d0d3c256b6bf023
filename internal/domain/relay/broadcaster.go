package relay

import (
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
)

// Lifecycle notifications sent through the broadcast stream
const (
	AlertStarted = "Process started."
	AlertExited  = "Process exited."
)

// Broadcaster owns the replay buffer and fans output out to clients.
type Broadcaster struct {
	// mu serializes Send against Join so catch-up and live output never
	// overlap or leave a gap for a joining client.
	mu      sync.Mutex
	outMu   sync.Mutex
	buffer  *ReplayBuffer
	clients *Registry
	output  io.Writer

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewBroadcaster creates a broadcaster with a replay buffer of bufferSize
// bytes. A nil output suppresses the local echo.
func NewBroadcaster(bufferSize int, output io.Writer, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		buffer:  NewReplayBuffer(bufferSize),
		clients: NewRegistry(),
		output:  output,
		logger:  logger,
	}
}

// WithMetrics attaches a metrics collector
func (b *Broadcaster) WithMetrics(metrics *monitoring.Metrics) *Broadcaster {
	b.metrics = metrics
	return b
}

// Send appends data to the replay buffer, delivers it to every client in
// join order and echoes it to the local output. Empty input is ignored.
func (b *Broadcaster) Send(data []byte) {
	if len(data) == 0 {
		return
	}
	// Producers reuse their read buffers; clients keep this slice.
	chunk := make([]byte, len(data))
	copy(chunk, data)

	b.mu.Lock()
	b.buffer.Write(chunk)

	var failed []Client
	for _, c := range b.clients.Snapshot() {
		if err := c.Send(chunk); err != nil {
			b.logger.Warn("Dropping client after send failure",
				zap.String("client", c.ID()),
				zap.Error(err),
			)
			// A concurrent Leave may already have removed c.
			if _, ok := b.clients.Remove(c.ID()); ok {
				failed = append(failed, c)
			}
		}
	}
	buffered := b.buffer.Len()
	b.mu.Unlock()

	// The local echo is written outside mu so a stalled terminal cannot
	// hold up joins or leaves. Output has a single producer at a time, so
	// echo order still follows Send order.
	if b.output != nil {
		b.outMu.Lock()
		if _, err := b.output.Write(chunk); err != nil {
			b.logger.Warn("Local output write failed", zap.Error(err))
		}
		b.outMu.Unlock()
	}

	for _, c := range failed {
		c.Close()
		b.metrics.ClientLeft()
		b.metrics.RecordClientDrop(monitoring.DropSendFailed)
	}
	b.metrics.RecordBroadcast(len(chunk), buffered)
}

// SendAlert broadcasts text as a highlighted line.
func (b *Broadcaster) SendAlert(text string) {
	b.Send([]byte(FormatAlert(text)))
}

// FormatAlert renders text as a bold yellow line terminated by CRLF.
func FormatAlert(text string) string {
	return termenv.String(text + "\r\n").Foreground(termenv.ANSIYellow).Bold().String()
}

// CatchUp sends the whole replay buffer to c in one message. Nothing is
// sent while the buffer is empty.
func (b *Broadcaster) CatchUp(c Client) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catchUpLocked(c)
}

func (b *Broadcaster) catchUpLocked(c Client) error {
	snapshot := b.buffer.Bytes()
	if len(snapshot) == 0 {
		return nil
	}
	if err := c.Send(snapshot); err != nil {
		return fmt.Errorf("%w: %w", ErrClientSend, err)
	}
	return nil
}

// Join registers c and queues its catch-up before any further broadcast.
// On error c is not registered.
func (b *Broadcaster) Join(c Client) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.clients.Add(c) {
		return fmt.Errorf("%w: %s", ErrDuplicateClient, c.ID())
	}
	if err := b.catchUpLocked(c); err != nil {
		b.clients.Remove(c.ID())
		return err
	}

	b.metrics.ClientJoined()
	b.logger.Debug("Client joined",
		zap.String("client", c.ID()),
		zap.Int("catch_up_bytes", b.buffer.Len()),
	)
	return nil
}

// Leave unregisters c. It is safe to call for clients already dropped.
func (b *Broadcaster) Leave(c Client) {
	if _, ok := b.clients.Remove(c.ID()); ok {
		b.metrics.ClientLeft()
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	clients := b.clients.Clear()
	b.mu.Unlock()

	for _, c := range clients {
		c.Close()
		b.metrics.ClientLeft()
		b.metrics.RecordClientDrop(monitoring.DropShutdown)
	}
}

// Snapshot returns a copy of the replay buffer contents
func (b *Broadcaster) Snapshot() []byte {
	return b.buffer.Bytes()
}

// BufferLen returns the number of buffered bytes
func (b *Broadcaster) BufferLen() int {
	return b.buffer.Len()
}

// BufferCap returns the replay buffer capacity
func (b *Broadcaster) BufferCap() int {
	return b.buffer.Cap()
}

// Clients returns the number of connected clients
func (b *Broadcaster) Clients() int {
	return b.clients.Len()
}
