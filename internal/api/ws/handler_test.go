package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/monitoring"
)

type recordedInput struct {
	mu   sync.Mutex
	data []string
}

func (r *recordedInput) OnClientInput(_ context.Context, _ string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, string(data))
	return nil
}

func (r *recordedInput) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data...)
}

func setupServer(t *testing.T, b *relay.Broadcaster, input relay.InputHandler) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ws", NewHandler(b, input, nil, monitoring.NewMetrics()).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (int, string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return kind, string(data)
}

func TestHandlerReplaysBufferThenStreams(t *testing.T) {
	b := relay.NewBroadcaster(64, nil, nil)
	b.Send([]byte("$ uptime\r\n"))
	url := setupServer(t, b, nil)

	conn := dial(t, url)

	kind, data := readFrame(t, conn)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, "$ uptime\r\n", data)

	b.Send([]byte("up 3 days"))
	_, data = readFrame(t, conn)
	assert.Equal(t, "up 3 days", data)
}

func TestHandlerDeliversClientInput(t *testing.T) {
	b := relay.NewBroadcaster(64, nil, nil)
	input := &recordedInput{}
	url := setupServer(t, b, input)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return b.Clients() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("q")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x03}))

	require.Eventually(t, func() bool { return len(input.All()) == 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"q", "\x03"}, input.All())
}

func TestHandlerLeavesOnDisconnect(t *testing.T) {
	b := relay.NewBroadcaster(64, nil, nil)
	url := setupServer(t, b, nil)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return b.Clients() == 1 }, 5*time.Second, 5*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	require.Eventually(t, func() bool { return b.Clients() == 0 }, 5*time.Second, 5*time.Millisecond)
	b.Send([]byte("after"))
}

func TestHandlerShutdownClosesConnections(t *testing.T) {
	b := relay.NewBroadcaster(64, nil, nil)
	url := setupServer(t, b, nil)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return b.Clients() == 1 }, 5*time.Second, 5*time.Millisecond)

	b.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestHandlerViewersSeeSameStream(t *testing.T) {
	b := relay.NewBroadcaster(64, nil, nil)
	url := setupServer(t, b, nil)

	first := dial(t, url)
	second := dial(t, url)
	require.Eventually(t, func() bool { return b.Clients() == 2 }, 5*time.Second, 5*time.Millisecond)

	b.Send([]byte("one"))
	b.Send([]byte("two"))

	for _, conn := range []*websocket.Conn{first, second} {
		_, a := readFrame(t, conn)
		_, c := readFrame(t, conn)
		assert.Equal(t, "onetwo", a+c)
	}
}

func TestClientSendNeverBlocks(t *testing.T) {
	c := &Client{
		id:   "slow",
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}

	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrQueueFull)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send([]byte("c")), ErrClosed)

	select {
	case <-c.Done():
	default:
		t.Fatal("done not closed")
	}
}
