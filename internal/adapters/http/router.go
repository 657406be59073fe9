package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/RelayHax/internal/adapters/proxy"
	"github.com/dkeye/RelayHax/internal/app"
	"github.com/dkeye/RelayHax/internal/config"
	"github.com/dkeye/RelayHax/internal/hax"
)

func SetupRouter(ctx context.Context, cfg *config.Config, reg *app.Registry, ctl *proxy.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		t := reg.Toggles()
		toggles := gin.H{
			"strip_passwords":     t.StripPasswords,
			"show_mobile_games":   t.ShowMobileGames,
			"show_other_versions": t.ShowOtherVersions,
		}
		c.JSON(http.StatusOK, gin.H{
			"lobby":   reg.Count(hax.LobbyChannel),
			"game":    reg.Count(hax.GameChannel),
			"toggles": toggles,
		})
	})

	ws := r.Group("/ws")
	ws.GET("/lobby/*path", func(c *gin.Context) {
		ctl.Handle(ctx, c, hax.LobbyChannel, cfg.LobbyUpstream)
	})
	ws.GET("/game/*path", func(c *gin.Context) {
		ctl.Handle(ctx, c, hax.GameChannel, cfg.GameUpstream)
	})

	log.Info().Str("module", "adapters.http").
		Str("lobby_upstream", cfg.LobbyUpstream).
		Str("game_upstream", cfg.GameUpstream).
		Msg("router setup")
	return r
}
