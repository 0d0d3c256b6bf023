// Package terminal provides the pseudo-terminal primitive used by the relay.
//
// A Process is a child program attached to a freshly allocated PTY with
// local echo disabled, so everything it prints (and nothing that is typed
// into it) appears on the master side.
//
// Features:
//   - PTY allocation via creack/pty
//   - ECHO disabled on the slave before the child starts
//   - Background reaping so exit status is available after end-of-stream
//   - Idempotent force termination
//   - End-of-input signalling with the terminal's VEOF character
//
// Example Usage:
//
//	proc, err := terminal.Spawn([]string{"top", "-b"})
//	if err != nil {
//		return err
//	}
//	defer proc.Close()
//
//	buf := make([]byte, 1024)
//	n, err := proc.Read(buf)
//	// ... io.EOF once the child has closed the terminal
//
//	code, err := proc.Wait()
package terminal
