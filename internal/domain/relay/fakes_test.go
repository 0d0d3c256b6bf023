package relay

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var fakePids atomic.Int32

// fakeProcess replays scripted output. With block set it keeps running
// after the script until terminated.
type fakeProcess struct {
	pid   int
	code  int
	block bool
	// lingers keeps the process alive after output ends.
	lingers bool
	waitErr error

	mu           sync.Mutex
	chunks       [][]byte
	written      bytes.Buffer
	eofs         int
	terminations int
	forced       bool
	killed       bool

	killCh   chan struct{}
	killOnce sync.Once
	exited   chan struct{}
	exitOnce sync.Once
}

func newFakeProcess(code int, chunks ...string) *fakeProcess {
	p := &fakeProcess{
		pid:    int(fakePids.Add(1)) + 1000,
		code:   code,
		killCh: make(chan struct{}),
		exited: make(chan struct{}),
	}
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
	return p
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(p.chunks) > 0 {
		n := copy(b, p.chunks[0])
		p.chunks = p.chunks[1:]
		p.mu.Unlock()
		return n, nil
	}
	p.mu.Unlock()

	if p.block {
		<-p.killCh
	}
	if !p.lingers {
		p.exit()
	}
	return 0, io.EOF
}

func (p *fakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakeProcess) SendEOF() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eofs++
	return nil
}

func (p *fakeProcess) Terminate(force bool) error {
	p.mu.Lock()
	p.terminations++
	p.forced = p.forced || force
	p.killed = true
	p.mu.Unlock()

	p.killOnce.Do(func() { close(p.killCh) })
	p.exit()
	return nil
}

func (p *fakeProcess) exit() {
	p.exitOnce.Do(func() { close(p.exited) })
}

func (p *fakeProcess) Exited() <-chan struct{} { return p.exited }

func (p *fakeProcess) Wait() (int, error) {
	<-p.exited
	if p.waitErr != nil {
		return 0, p.waitErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed {
		return -1, nil
	}
	return p.code, nil
}

func (p *fakeProcess) Close() error { return nil }

func (p *fakeProcess) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *fakeProcess) EOFs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eofs
}

func (p *fakeProcess) Terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminations
}

// fakeSpawner hands out processes from factory and records every call.
type fakeSpawner struct {
	mu      sync.Mutex
	factory func(call int) (Process, error)
	calls   int
	procs   []*fakeProcess
}

func (s *fakeSpawner) Spawn(argv []string) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	proc, err := s.factory(s.calls)
	if err != nil {
		return nil, err
	}
	if fp, ok := proc.(*fakeProcess); ok {
		s.procs = append(s.procs, fp)
	}
	return proc, nil
}

func (s *fakeSpawner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSpawner) Last() *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}

var errSendFailed = errors.New("connection reset")

// recordingClient collects every message it is sent.
type recordingClient struct {
	id   string
	fail bool

	mu     sync.Mutex
	msgs   [][]byte
	closed int
}

func newClient(id string) *recordingClient {
	return &recordingClient{id: id}
}

func (c *recordingClient) ID() string { return c.id }

func (c *recordingClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errSendFailed
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *recordingClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *recordingClient) Messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *recordingClient) Received() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(bytes.Join(c.msgs, nil))
}

func (c *recordingClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// syncBuffer is a goroutine-safe local output sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
