package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
)

// InputState is the lifecycle position of an InputRelay.
type InputState int32

const (
	StateIdle InputState = iota
	StateReading
	StateClosed
)

func (s InputState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// InputRelay copies local input into the supervised process, or into the
// broadcast stream when running without a command.
type InputRelay struct {
	input       io.Reader
	supervisor  *Supervisor
	broadcaster *Broadcaster
	logger      *zap.Logger
	metrics     *monitoring.Metrics

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
}

// NewInputRelay creates a relay reading from input. A nil supervisor
// selects passthrough mode.
func NewInputRelay(input io.Reader, supervisor *Supervisor, broadcaster *Broadcaster, logger *zap.Logger) *InputRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InputRelay{
		input:       input,
		supervisor:  supervisor,
		broadcaster: broadcaster,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// WithMetrics attaches a metrics collector
func (r *InputRelay) WithMetrics(metrics *monitoring.Metrics) *InputRelay {
	r.metrics = metrics
	return r
}

// Run reads input until EOF, a read error or ctx cancellation. A blocked
// read cannot be interrupted; once ctx is done any late data is discarded.
func (r *InputRelay) Run(ctx context.Context) {
	defer r.close()

	if r.input == nil {
		return
	}
	r.state.Store(int32(StateReading))

	var prev byte
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.input.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			r.metrics.AddLocalInput(n)
			prev = r.forward(buf[:n], prev)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Debug("Local input reached EOF")
				if r.supervisor != nil {
					if err := r.supervisor.SendEOF(); err != nil {
						r.logger.Warn("Failed to send EOF to process", zap.Error(err))
					}
				}
			} else {
				r.logger.Warn("Local input read failed", zap.Error(err))
			}
			return
		}
	}
}

// forward routes one chunk and returns its last byte.
func (r *InputRelay) forward(chunk []byte, prev byte) byte {
	last := chunk[len(chunk)-1]

	if r.supervisor != nil {
		if err := r.supervisor.Write(chunk); err != nil {
			r.logger.Warn("Failed to forward input", zap.Error(err))
		}
		return last
	}

	r.broadcaster.Send(normalizeNewlines(prev, chunk))
	return last
}

func (r *InputRelay) close() {
	r.closeOnce.Do(func() {
		r.state.Store(int32(StateClosed))
		close(r.done)
	})
}

// Done is closed once the relay stops reading.
func (r *InputRelay) Done() <-chan struct{} {
	return r.done
}

// State returns the current lifecycle state
func (r *InputRelay) State() InputState {
	return InputState(r.state.Load())
}

// normalizeNewlines rewrites every LF not preceded by CR into CRLF. prev is
// the final byte of the previous chunk so pairs split across reads are kept.
func normalizeNewlines(prev byte, chunk []byte) []byte {
	extra := 0
	p := prev
	for _, c := range chunk {
		if c == '\n' && p != '\r' {
			extra++
		}
		p = c
	}
	if extra == 0 {
		return chunk
	}

	out := make([]byte, 0, len(chunk)+extra)
	p = prev
	for _, c := range chunk {
		if c == '\n' && p != '\r' {
			out = append(out, '\r')
		}
		out = append(out, c)
		p = c
	}
	return out
}
