package relay

import (
	"github.com/GriffinCanCode/webcommand/internal/terminal"
)

// Process is the supervised child as seen by the relay.
type Process interface {
	Pid() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// SendEOF signals end-of-input to the child.
	SendEOF() error
	// Terminate signals the child; terminating an exited child is a no-op.
	Terminate(force bool) error
	// Exited is closed once the child has been reaped.
	Exited() <-chan struct{}
	// Wait returns the exit code once the child has been reaped.
	Wait() (int, error)
	Close() error
}

// SpawnFunc starts argv attached to a fresh pseudo-terminal.
type SpawnFunc func(argv []string) (Process, error)

// DefaultSpawn spawns processes with the terminal package.
func DefaultSpawn(argv []string) (Process, error) {
	p, err := terminal.Spawn(argv)
	if err != nil {
		return nil, err
	}
	return p, nil
}
