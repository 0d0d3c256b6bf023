package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

var (
	// ErrSpawn is returned when the executable cannot be found or the OS
	// refuses to allocate the terminal or the process.
	ErrSpawn = errors.New("spawn failed")

	// ErrNoExitStatus is returned by Wait when the child was reaped but no
	// exit status could be observed.
	ErrNoExitStatus = errors.New("exit status unavailable")
)

// Process is a child program bound to the master side of a PTY.
type Process struct {
	argv []string
	cmd  *exec.Cmd
	ptmx *os.File

	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

// Spawn allocates a PTY, disables local echo and starts argv attached to it.
func Spawn(argv []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PTY: %w", ErrSpawn, err)
	}

	if err := disableEcho(tty); err != nil {
		tty.Close()
		ptmx.Close()
		return nil, fmt.Errorf("%w: failed to disable echo: %w", ErrSpawn, err)
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		tty.Close()
		ptmx.Close()
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	// The child holds its own copies of the slave.
	tty.Close()

	p := &Process{
		argv:   argv,
		cmd:    cmd,
		ptmx:   ptmx,
		exited: make(chan struct{}),
	}
	go p.reap()

	return p, nil
}

// reap waits for the child so its status is available to Wait and
// Terminate never signals a recycled pid.
func (p *Process) reap() {
	p.waitErr = p.cmd.Wait()
	close(p.exited)
}

// Pid returns the OS process identifier.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Argv returns the command line the process was started with.
func (p *Process) Argv() []string {
	return p.argv
}

// Read reads terminal output. The EIO Linux reports once every slave
// descriptor is closed is translated to io.EOF.
func (p *Process) Read(buf []byte) (int, error) {
	n, err := p.ptmx.Read(buf)
	if err != nil && (errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)) {
		err = io.EOF
	}
	return n, err
}

// Write sends input to the process.
func (p *Process) Write(data []byte) (int, error) {
	return p.ptmx.Write(data)
}

// SendEOF signals end-of-input by writing the terminal's VEOF character.
func (p *Process) SendEOF() error {
	_, err := p.ptmx.Write([]byte{eofChar(p.ptmx)})
	return err
}

// Terminate signals the process group, with SIGKILL when force is set and
// SIGTERM otherwise. Terminating an exited process is not an error.
func (p *Process) Terminate(force bool) error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	// The child leads its own session, so signalling the group also
	// reaches descendants that would otherwise keep the terminal open.
	if err := syscall.Kill(-p.Pid(), sig); err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	if err := p.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to signal pid %d: %w", p.Pid(), err)
	}
	return nil
}

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Wait blocks until the process has been reaped and returns its exit code.
// A process killed by a signal reports -1.
func (p *Process) Wait() (int, error) {
	<-p.exited

	if p.waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("%w: %w", ErrNoExitStatus, p.waitErr)
}

// Close releases the master side of the terminal.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.ptmx.Close()
	})
	return p.closeErr
}
