package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/RelayHax/internal/hax"
)

const writeWait = 5 * time.Second

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	WriteControl(mt int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hook decides what happens to each binary frame.
type Hook interface {
	Handle(data []byte, dir hax.Direction) (hax.Verdict, error)
}

// Pipe shuttles frames between client and upstream until either side closes or
// ctx is done. Both connections are closed on return.
func Pipe(ctx context.Context, client, upstream WSConn, hook Hook, logger zerolog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		_ = client.Close()
		_ = upstream.Close()
		return nil
	})
	g.Go(func() error { return pump(client, upstream, hook, hax.ToServer, logger) })
	g.Go(func() error { return pump(upstream, client, hook, hax.ToClient, logger) })
	return g.Wait()
}

// pump never returns nil, so the errgroup context is always canceled once a side stops.
func pump(src, dst WSConn, hook Hook, dir hax.Direction, logger zerolog.Logger) error {
	for {
		mt, data, err := src.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				msg := websocket.FormatCloseMessage(ce.Code, ce.Text)
				_ = dst.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			}
			return fmt.Errorf("read (to %s): %w", dir, err)
		}

		if mt == websocket.BinaryMessage {
			v, err := hook.Handle(data, dir)
			if err != nil {
				return fmt.Errorf("hook (to %s): %w", dir, err)
			}
			switch v.Action {
			case hax.Drop:
				logger.Debug().Str("direction", dir.String()).Int("len", len(data)).Msg("dropped frame")
				continue
			case hax.Replace:
				data = v.Data
			}
		}

		if err := dst.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("set deadline (to %s): %w", dir, err)
		}
		if err := dst.WriteMessage(mt, data); err != nil {
			return fmt.Errorf("write (to %s): %w", dir, err)
		}
	}
}

// IsNormalClose reports whether err ends a connection the usual way.
func IsNormalClose(err error) bool {
	if err == nil {
		return true
	}
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		return true
	}
	return false
}
