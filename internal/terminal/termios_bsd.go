//go:build darwin || freebsd || netbsd || openbsd

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

const defaultEOF = 0x04

func disableEcho(tty *os.File) error {
	fd := int(tty.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return err
	}
	t.Lflag &^= unix.ECHO
	return unix.IoctlSetTermios(fd, unix.TIOCSETA, t)
}

func eofChar(ptmx *os.File) byte {
	t, err := unix.IoctlGetTermios(int(ptmx.Fd()), unix.TIOCGETA)
	if err != nil || t.Cc[unix.VEOF] == 0 {
		return defaultEOF
	}
	return t.Cc[unix.VEOF]
}
