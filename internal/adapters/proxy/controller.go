package proxy

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RelayHax/internal/app"
	"github.com/dkeye/RelayHax/internal/hax"
)

// Controller terminates client WebSockets and opens the matching upstream one.
type Controller struct {
	Registry  *app.Registry
	Opts      hax.Options
	Dialer    *websocket.Dialer
	ReadLimit int64

	upgrader websocket.Upgrader
}

func NewController(reg *app.Registry, opts hax.Options, dialTimeout time.Duration, readLimit int64) *Controller {
	return &Controller{
		Registry:  reg,
		Opts:      opts,
		Dialer:    &websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: dialTimeout},
		ReadLimit: readLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func upstreamURL(base, path, rawQuery string) string {
	u := strings.TrimRight(base, "/") + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Handle proxies one client connection on channel ch to upstream.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context, ch hax.Channel, upstream string) {
	logger := log.With().Str("module", "adapters.proxy").Str("channel", ch.String()).Logger()
	target := upstreamURL(upstream, c.Param("path"), c.Request.URL.RawQuery)

	dialer := *ctl.Dialer
	dialer.Subprotocols = websocket.Subprotocols(c.Request)
	up, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Error().Err(err).Str("target", target).Int("status", status).Msg("upstream dial")
		c.AbortWithStatus(http.StatusBadGateway)
		return
	}

	var hdr http.Header
	if p := up.Subprotocol(); p != "" {
		hdr = http.Header{"Sec-Websocket-Protocol": {p}}
	}
	client, err := ctl.upgrader.Upgrade(c.Writer, c.Request, hdr)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		_ = up.Close()
		return
	}
	if ctl.ReadLimit > 0 {
		client.SetReadLimit(ctl.ReadLimit)
		up.SetReadLimit(ctl.ReadLimit)
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	id, sess := ctl.Registry.Open(ch, cancel)
	defer ctl.Registry.Close(id)

	opts := ctl.Opts
	opts.Log = opts.Log.With().Str("conn", string(id)).Logger()
	d := hax.NewDispatcher(ch, sess, opts)

	logger = logger.With().Str("conn", string(id)).Logger()
	logger.Info().Str("target", target).Str("subprotocol", up.Subprotocol()).Msg("proxying")

	if err := Pipe(connCtx, client, up, d, logger); !IsNormalClose(err) && connCtx.Err() == nil {
		logger.Warn().Err(err).Msg("connection ended")
		return
	}
	logger.Info().Msg("connection closed")
}
