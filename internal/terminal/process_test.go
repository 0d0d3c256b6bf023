package terminal

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePTY(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PTY not supported")
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("PTY unavailable: %v", err)
	}
	tty.Close()
	ptmx.Close()
}

// collector drains a process's output in the background.
type collector struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	done chan struct{}
}

func collect(p *Process) *collector {
	c := &collector{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		chunk := make([]byte, 1024)
		for {
			n, err := p.Read(chunk)
			if n > 0 {
				c.mu.Lock()
				c.buf.Write(chunk[:n])
				c.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func TestSpawnReadsOutput(t *testing.T) {
	requirePTY(t)

	p, err := Spawn([]string{"echo", "hello relay"})
	require.NoError(t, err)
	defer p.Close()

	assert.Greater(t, p.Pid(), 0)
	assert.Equal(t, []string{"echo", "hello relay"}, p.Argv())

	out := collect(p)
	select {
	case <-out.done:
	case <-time.After(5 * time.Second):
		t.Fatal("output did not reach end-of-stream")
	}
	assert.Contains(t, out.String(), "hello relay")

	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestSpawnNonZeroExit(t *testing.T) {
	requirePTY(t)

	p, err := Spawn([]string{"false"})
	require.NoError(t, err)
	defer p.Close()

	<-collect(p).done
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := Spawn([]string{"definitely-not-a-real-command-4f1c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawn))

	_, err = Spawn(nil)
	assert.True(t, errors.Is(err, ErrSpawn))
}

func TestTerminateIsIdempotent(t *testing.T) {
	requirePTY(t)

	p, err := Spawn([]string{"sleep", "30"})
	require.NoError(t, err)
	defer p.Close()
	out := collect(p)

	require.NoError(t, p.Terminate(true))
	require.NoError(t, p.Terminate(true))

	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process was not killed")
	}
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, -1, code)

	// After the process is gone another terminate is still a no-op.
	assert.NoError(t, p.Terminate(true))
	<-out.done
}

func TestEchoDisabled(t *testing.T) {
	requirePTY(t)

	p, err := Spawn([]string{"cat"})
	require.NoError(t, err)
	defer p.Close()
	out := collect(p)

	_, err = p.Write([]byte("ping\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ping")
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, strings.Count(out.String(), "ping"), "input must not be echoed")

	require.NoError(t, p.SendEOF())
	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("cat did not exit after end-of-input")
	}
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestReadAfterCloseIsEOF(t *testing.T) {
	requirePTY(t)

	p, err := Spawn([]string{"sleep", "30"})
	require.NoError(t, err)
	require.NoError(t, p.Terminate(true))
	<-p.Exited()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Read(make([]byte, 16))
	assert.ErrorIs(t, err, io.EOF)
}
