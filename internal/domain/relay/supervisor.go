package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webcommand/internal/shared/id"
)

const (
	// DefaultWaitTime is the pause between a process ending and its restart.
	DefaultWaitTime = 5 * time.Second

	// readChunkSize bounds a single read from the process or local input.
	readChunkSize = 1024

	// exitGrace is how long the supervisor waits for an exit status after
	// output ends before force-terminating the child.
	exitGrace = 2 * time.Second
)

// Supervisor keeps one instance of a command running, restarting it after
// WaitTime whenever its output ends.
type Supervisor struct {
	command   []string
	waitTime  time.Duration
	exitGrace time.Duration
	spawn     SpawnFunc
	output    *Broadcaster
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu     sync.Mutex
	active Process
	run    id.RunID
	starts int
}

// NewSupervisor creates a supervisor for command. Output of every run is
// forwarded to output.
func NewSupervisor(command []string, waitTime time.Duration, spawn SpawnFunc, output *Broadcaster, logger *zap.Logger) *Supervisor {
	if spawn == nil {
		spawn = DefaultSpawn
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if waitTime < 0 {
		waitTime = 0
	}
	return &Supervisor{
		command:   command,
		waitTime:  waitTime,
		exitGrace: exitGrace,
		spawn:     spawn,
		output:    output,
		logger:    logger,
	}
}

// WithMetrics attaches a metrics collector
func (s *Supervisor) WithMetrics(metrics *monitoring.Metrics) *Supervisor {
	s.metrics = metrics
	return s
}

// Run spawns, streams and restarts the command until ctx is done. Neither
// spawn failures nor non-zero exits stop the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.command) == 0 {
		return ErrNoCommand
	}

	for {
		s.runOnce(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		s.metrics.IncRestarts()
		s.logger.Debug("Waiting before restart", zap.Duration("wait", s.waitTime))
		if err := sleep(ctx, s.waitTime); err != nil {
			return err
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) {
	proc, err := s.start(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.IncSpawnFailures()
			s.logger.Error("Failed to start process",
				zap.Strings("command", s.command),
				zap.Error(err),
			)
		}
		return
	}
	defer s.release(proc)

	s.output.SendAlert(AlertStarted)
	s.pump(proc)

	code, err := s.reap(proc)
	s.output.SendAlert(AlertExited)

	switch {
	case err != nil:
		s.metrics.ProcessExited(monitoring.OutcomeUnknown)
		s.logger.Debug("End process", zap.Int("pid", proc.Pid()), zap.Error(err))
	case code != 0:
		s.metrics.ProcessExited(monitoring.OutcomeFailure)
		s.logger.Debug("End process", zap.Int("pid", proc.Pid()), zap.Int("exit_status", code))
		s.logger.Error("Process exited with non-zero status",
			zap.Error(&ExitError{Pid: proc.Pid(), Code: code}),
		)
	default:
		s.metrics.ProcessExited(monitoring.OutcomeSuccess)
		s.logger.Debug("End process", zap.Int("pid", proc.Pid()), zap.Int("exit_status", code))
	}
}

// start spawns the next instance. Holding mu across the spawn means a
// Terminate issued after cancellation can never miss a fresh process.
func (s *Supervisor) start(ctx context.Context) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proc, err := s.spawn(s.command)
	if err != nil {
		if !errors.Is(err, ErrSpawn) {
			err = fmt.Errorf("%w: %w", ErrSpawn, err)
		}
		return nil, err
	}

	s.active = proc
	s.run = id.NewRunID()
	s.starts++
	s.metrics.ProcessStarted()
	s.logger.Debug("Start process",
		zap.Int("pid", proc.Pid()),
		zap.Strings("command", s.command),
		zap.String("run", s.run.String()),
	)
	return proc, nil
}

// pump forwards process output until end-of-stream.
func (s *Supervisor) pump(proc Process) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := proc.Read(buf)
		if n > 0 {
			s.output.Send(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("Process read ended", zap.Int("pid", proc.Pid()), zap.Error(err))
			}
			return
		}
	}
}

// reap collects the exit status once output has ended. A child that keeps
// running without an output channel is force-terminated.
func (s *Supervisor) reap(proc Process) (int, error) {
	timer := time.NewTimer(s.exitGrace)
	defer timer.Stop()

	select {
	case <-proc.Exited():
	case <-timer.C:
		s.logger.Warn("EOF reached before process exit",
			zap.Int("pid", proc.Pid()),
			zap.Error(ErrUnexpectedEOF),
		)
		if err := proc.Terminate(true); err != nil {
			s.logger.Warn("Failed to terminate process", zap.Int("pid", proc.Pid()), zap.Error(err))
		}
	}

	code, err := proc.Wait()
	if err != nil {
		s.logger.Warn("EOF reached without exit status",
			zap.Int("pid", proc.Pid()),
			zap.Error(fmt.Errorf("%w: %w", ErrUnexpectedEOF, err)),
		)
	}
	return code, err
}

func (s *Supervisor) release(proc Process) {
	s.mu.Lock()
	if s.active == proc {
		s.active = nil
	}
	s.mu.Unlock()

	if err := proc.Close(); err != nil {
		s.logger.Debug("Failed to close process terminal", zap.Int("pid", proc.Pid()), zap.Error(err))
	}
}

// Terminate force-kills the active process, if any, and forgets it.
// Calling it again is a no-op.
func (s *Supervisor) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	proc := s.active
	s.active = nil

	s.logger.Debug("Terminate process", zap.Int("pid", proc.Pid()))
	if err := proc.Terminate(true); err != nil {
		return fmt.Errorf("failed to terminate process %d: %w", proc.Pid(), err)
	}
	return nil
}

// Write forwards input to the active process. Input arriving while no
// process is running (for example mid-restart) is dropped.
func (s *Supervisor) Write(data []byte) error {
	proc := s.current()
	if proc == nil {
		s.logger.Debug("No active process, dropping input", zap.Int("bytes", len(data)))
		return nil
	}
	if _, err := proc.Write(data); err != nil {
		return fmt.Errorf("failed to write to process %d: %w", proc.Pid(), err)
	}
	return nil
}

// SendEOF signals end-of-input to the active process, if any.
func (s *Supervisor) SendEOF() error {
	proc := s.current()
	if proc == nil {
		return nil
	}
	return proc.SendEOF()
}

func (s *Supervisor) current() Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active reports whether a process is currently running
func (s *Supervisor) Active() bool {
	return s.current() != nil
}

// Pid returns the active process ID, or 0 when none is running
func (s *Supervisor) Pid() int {
	if proc := s.current(); proc != nil {
		return proc.Pid()
	}
	return 0
}

// Starts returns how many times the command has been spawned
func (s *Supervisor) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Command returns the supervised command line
func (s *Supervisor) Command() []string {
	return s.command
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
