package proxy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RelayHax/internal/hax"
)

type frame struct {
	mt   int
	data []byte
}

var errConnClosed = errors.New("use of closed connection")

type fakeConn struct {
	in      chan frame
	out     chan frame
	control chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan frame, 16),
		out:     make(chan frame, 16),
		control: make(chan []byte, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
		}
		return f.mt, f.data, nil
	case <-c.closed:
		return 0, nil, errConnClosed
	}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	c.out <- frame{mt: mt, data: data}
	return nil
}

func (c *fakeConn) WriteControl(mt int, data []byte, _ time.Time) error {
	if mt == websocket.CloseMessage {
		c.control <- data
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type hookFunc func([]byte, hax.Direction) (hax.Verdict, error)

func (f hookFunc) Handle(data []byte, dir hax.Direction) (hax.Verdict, error) { return f(data, dir) }

func drain(c chan frame) []frame {
	var out []frame
	for {
		select {
		case f := <-c:
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestPipeAppliesVerdicts(t *testing.T) {
	t.Parallel()

	client, upstream := newFakeConn(), newFakeConn()
	hook := hookFunc(func(data []byte, dir hax.Direction) (hax.Verdict, error) {
		assert.Equal(t, hax.ToServer, dir)
		switch string(data) {
		case "drop":
			return hax.Verdict{Action: hax.Drop}, nil
		case "swap":
			return hax.Verdict{Action: hax.Replace, Data: []byte("swapped")}, nil
		}
		return hax.Verdict{Action: hax.Forward}, nil
	})

	client.in <- frame{websocket.BinaryMessage, []byte("keep")}
	client.in <- frame{websocket.BinaryMessage, []byte("drop")}
	client.in <- frame{websocket.BinaryMessage, []byte("swap")}
	client.in <- frame{websocket.TextMessage, []byte("drop")}
	close(client.in)

	err := Pipe(context.Background(), client, upstream, hook, zerolog.Nop())
	assert.True(t, IsNormalClose(err), "got %v", err)

	assert.Equal(t, []frame{
		{websocket.BinaryMessage, []byte("keep")},
		{websocket.BinaryMessage, []byte("swapped")},
		{websocket.TextMessage, []byte("drop")},
	}, drain(upstream.out))
	assert.Len(t, upstream.control, 1, "close frame forwarded upstream")
	assert.Empty(t, drain(client.out))
}

func TestPipeHookErrorEndsConnection(t *testing.T) {
	t.Parallel()

	client, upstream := newFakeConn(), newFakeConn()
	hook := hookFunc(func([]byte, hax.Direction) (hax.Verdict, error) {
		return hax.Verdict{Action: hax.Forward}, hax.ErrSessionUnavailable
	})
	upstream.in <- frame{websocket.BinaryMessage, []byte{1}}

	err := Pipe(context.Background(), client, upstream, hook, zerolog.Nop())
	require.ErrorIs(t, err, hax.ErrSessionUnavailable)
	assert.False(t, IsNormalClose(err))
	assert.Empty(t, drain(client.out))
}

func TestPipeStopsOnContext(t *testing.T) {
	t.Parallel()

	client, upstream := newFakeConn(), newFakeConn()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Pipe(ctx, client, upstream, hookFunc(func([]byte, hax.Direction) (hax.Verdict, error) {
			return hax.Verdict{}, nil
		}), zerolog.Nop())
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errConnClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("pipe did not stop")
	}
}

func TestUpstreamURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "wss://host:1/game?a=1", upstreamURL("wss://host:1/", "/game", "a=1"))
	assert.Equal(t, "wss://host:1/", upstreamURL("wss://host:1", "/", ""))
}
