package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
)

// Mode names reported in Status
const (
	ModeCommand     = "command"
	ModePassthrough = "passthrough"
)

// Options configures a Relay.
type Options struct {
	// Command is the argv to supervise. Empty selects passthrough mode.
	Command []string
	// WaitTime is the pause before each restart.
	WaitTime time.Duration
	// BufferSize is the replay buffer capacity in bytes.
	BufferSize int
	// Output receives a local copy of everything broadcast. Nil suppresses it.
	Output io.Writer
	// Input is the local keyboard source. Nil disables local input.
	Input io.Reader
	// ForwardClientInput routes remote client keystrokes into the process.
	ForwardClientInput bool
}

// Status is a point-in-time view of the relay.
type Status struct {
	Mode          string   `json:"mode"`
	Command       []string `json:"command,omitempty"`
	Clients       int      `json:"clients"`
	BufferBytes   int      `json:"buffer_bytes"`
	BufferCap     int      `json:"buffer_capacity"`
	ProcessActive bool     `json:"process_active"`
	Pid           int      `json:"pid,omitempty"`
	Starts        int      `json:"starts"`
	Input         string   `json:"input"`
}

// Relay ties the supervisor, broadcaster and input relay together.
type Relay struct {
	opts        Options
	broadcaster *Broadcaster
	supervisor  *Supervisor
	input       *InputRelay
	handler     InputHandler
	logger      *zap.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New builds a relay from opts. A nil spawn uses DefaultSpawn.
func New(opts Options, spawn SpawnFunc, logger *zap.Logger, metrics *monitoring.Metrics) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.WaitTime < 0 {
		opts.WaitTime = 0
	}

	r := &Relay{
		opts:    opts,
		logger:  logger,
		handler: DiscardInput,
	}
	r.broadcaster = NewBroadcaster(opts.BufferSize, opts.Output, logger.Named("broadcast")).WithMetrics(metrics)

	if len(opts.Command) > 0 {
		r.supervisor = NewSupervisor(opts.Command, opts.WaitTime, spawn, r.broadcaster, logger.Named("process")).WithMetrics(metrics)
		if opts.ForwardClientInput {
			r.handler = ProcessInput(r.supervisor)
		}
	}
	r.input = NewInputRelay(opts.Input, r.supervisor, r.broadcaster, logger.Named("input")).WithMetrics(metrics)
	return r
}

// Start launches the background tasks. The supervisor only runs when a
// command is configured.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	if r.supervisor != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("Process supervisor stopped", zap.Error(err))
			}
		}()
	}

	// Not tracked by wg: a read blocked on stdin cannot be interrupted.
	go r.input.Run(ctx)

	r.logger.Info("Relay started",
		zap.String("mode", r.mode()),
		zap.Strings("command", r.opts.Command),
		zap.Int("buffer_size", r.opts.BufferSize),
		zap.Duration("wait_time", r.opts.WaitTime),
	)
}

// Stop kills the process, stops the background tasks and disconnects all
// clients. Later calls are no-ops.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info("Exiting...")
		if r.cancel != nil {
			r.cancel()
		}
		if r.supervisor != nil {
			if err := r.supervisor.Terminate(); err != nil {
				r.logger.Warn("Failed to terminate process", zap.Error(err))
			}
		}
		r.wg.Wait()
		r.broadcaster.Close()
	})
}

// Broadcaster returns the output broadcaster
func (r *Relay) Broadcaster() *Broadcaster {
	return r.broadcaster
}

// Supervisor returns the process supervisor, or nil in passthrough mode
func (r *Relay) Supervisor() *Supervisor {
	return r.supervisor
}

// InputHandler returns the hook for remote client input
func (r *Relay) InputHandler() InputHandler {
	return r.handler
}

// InputDone is closed once local input ends
func (r *Relay) InputDone() <-chan struct{} {
	return r.input.Done()
}

func (r *Relay) mode() string {
	if r.supervisor == nil {
		return ModePassthrough
	}
	return ModeCommand
}

// Status reports the relay's current state.
func (r *Relay) Status() Status {
	st := Status{
		Mode:        r.mode(),
		Command:     r.opts.Command,
		Clients:     r.broadcaster.Clients(),
		BufferBytes: r.broadcaster.BufferLen(),
		BufferCap:   r.broadcaster.BufferCap(),
		Input:       r.input.State().String(),
	}
	if r.supervisor != nil {
		st.ProcessActive = r.supervisor.Active()
		st.Pid = r.supervisor.Pid()
		st.Starts = r.supervisor.Starts()
	}
	return st
}
