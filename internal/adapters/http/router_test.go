package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RelayHax/internal/adapters/proxy"
	"github.com/dkeye/RelayHax/internal/app"
	"github.com/dkeye/RelayHax/internal/config"
	"github.com/dkeye/RelayHax/internal/hax"
)

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := app.NewRegistry(hax.Toggles{})
	reg.Open(hax.GameChannel, nil)
	reg.ApplyToggles(hax.Toggles{StripPasswords: true})
	ctl := proxy.NewController(reg, hax.Options{Log: zerolog.Nop(), Trace: zerolog.Nop()}, time.Second, 0)
	cfg := &config.Config{Mode: "test", LobbyUpstream: "ws://127.0.0.1:1", GameUpstream: "ws://127.0.0.1:1"}
	r := SetupRouter(context.Background(), cfg, reg, ctl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Lobby   int             `json:"lobby"`
		Game    int             `json:"game"`
		Toggles map[string]bool `json:"toggles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Lobby)
	assert.Equal(t, 1, body.Game)
	assert.Equal(t, map[string]bool{
		"strip_passwords":     true,
		"show_mobile_games":   false,
		"show_other_versions": false,
	}, body.Toggles)
}

func TestWebSocketRoutesRequireUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := app.NewRegistry(hax.Toggles{})
	ctl := proxy.NewController(reg, hax.Options{Log: zerolog.Nop(), Trace: zerolog.Nop()}, time.Second, 0)
	cfg := &config.Config{Mode: "test", LobbyUpstream: "ws://127.0.0.1:1", GameUpstream: "ws://127.0.0.1:1"}
	r := SetupRouter(context.Background(), cfg, reg, ctl)

	for _, path := range []string{"/ws/lobby/", "/ws/game/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadGateway, w.Code, path)
	}
}
