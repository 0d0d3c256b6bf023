package relay

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/webcommand/internal/terminal"
)

var (
	// ErrSpawn marks a failed spawn attempt. It is the same sentinel the
	// terminal package wraps, so errors.Is works across both layers.
	ErrSpawn = terminal.ErrSpawn

	// ErrUnexpectedEOF is logged when output ends before an exit status
	// can be observed.
	ErrUnexpectedEOF = errors.New("end of output without exit status")

	// ErrClientSend marks a delivery failure to a single client.
	ErrClientSend = errors.New("client send failed")

	// ErrDuplicateClient is returned when joining with an ID already present.
	ErrDuplicateClient = errors.New("client already registered")

	// ErrNoCommand is returned when the supervisor is run without a command.
	ErrNoCommand = errors.New("no command configured")
)

// ExitError reports a non-zero exit status of a supervised process.
type ExitError struct {
	Pid  int
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process %d exited with status %d", e.Pid, e.Code)
}
