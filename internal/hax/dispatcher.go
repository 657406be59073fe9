package hax

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"

	"github.com/dkeye/RelayHax/internal/photon"
)

// Channel is the relay endpoint a connection talks to. It is fixed per connection.
type Channel int

const (
	LobbyChannel Channel = iota
	GameChannel
)

func (c Channel) String() string {
	if c == GameChannel {
		return "game"
	}
	return "lobby"
}

type Direction int

const (
	ToServer Direction = iota
	ToClient
)

func (d Direction) String() string {
	if d == ToClient {
		return "client"
	}
	return "server"
}

// Action tells the transport what to do with a frame.
type Action int

const (
	Forward Action = iota
	Replace
	Drop
)

// Verdict is the outcome of handling one frame. Data is set only for Replace.
type Verdict struct {
	Action Action
	Data   []byte
}

type hookAction int

const (
	doNothing hookAction = iota
	change
	drop
)

type hookResult struct {
	action  hookAction
	message photon.Message
}

// Options carries the collaborators shared by every connection.
type Options struct {
	Log   zerolog.Logger
	Trace zerolog.Logger
	RPC   *RPCIntrospector
}

// Dispatcher is the entry point for every intercepted frame of one connection.
type Dispatcher struct {
	channel Channel
	session *Session
	lobby   *LobbyEngine
	game    *GameObserver
	log     zerolog.Logger
	trace   zerolog.Logger
}

func NewDispatcher(ch Channel, s *Session, opts Options) *Dispatcher {
	base := opts.Log.With().Str("channel", ch.String()).Logger()
	return &Dispatcher{
		channel: ch,
		session: s,
		lobby:   NewLobbyEngine(base),
		game:    NewGameObserver(s, opts.RPC, base, opts.Trace),
		log:     base.With().Str("module", "hax.dispatch").Logger(),
		trace:   opts.Trace,
	}
}

func (d *Dispatcher) Session() *Session { return d.session }

var forward = Verdict{Action: Forward}

// Handle decides the fate of one frame. Any per-frame failure forwards the original
// bytes; only ErrSessionUnavailable is returned, and it concerns this connection alone.
func (d *Dispatcher) Handle(data []byte, dir Direction) (Verdict, error) {
	msg, err := photon.Decode(data)
	if err != nil {
		d.log.Warn().Err(err).Str("direction", dir.String()).Int("len", len(data)).Msg("decode failed, forwarding original")
		return forward, nil
	}

	d.log.Debug().Str("name", msg.Kind()).Uint8("code", msg.Code()).Str("direction", dir.String()).Msg("Message")
	// Full payloads may carry other players' identities: trace sink only.
	if e := d.trace.Trace(); e.Enabled() {
		e.Str("message_type", msg.Kind()).
			Uint8("message_code", msg.Code()).
			Str("message_data", spew.Sdump(msg)).
			Str("direction", dir.String()).
			Msg("Message data")
	}

	res, err := d.route(msg, dir)
	if err != nil {
		if errors.Is(err, ErrSessionUnavailable) {
			return forward, err
		}
		d.log.Debug().Err(err).Str("name", msg.Kind()).Uint8("code", msg.Code()).Msg("hook failed, forwarding original")
		return forward, nil
	}

	switch res.action {
	case change:
		out, err := photon.Encode(res.message)
		if err != nil {
			d.log.Warn().Err(err).Uint8("code", msg.Code()).Msg("re-encode failed, forwarding original")
			return forward, nil
		}
		return Verdict{Action: Replace, Data: out}, nil
	case drop:
		return Verdict{Action: Drop}, nil
	default:
		return forward, nil
	}
}

func (d *Dispatcher) route(msg photon.Message, dir Direction) (res hookResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = hookResult{}, &photon.DecodeError{Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()

	if d.channel == GameChannel {
		return hookResult{}, d.game.Observe(msg, dir)
	}
	return d.matchLobby(msg)
}

func (d *Dispatcher) matchLobby(msg photon.Message) (hookResult, error) {
	switch m := msg.(type) {
	case *photon.OperationRequest:
		if photon.ClassifyOperation(m.OpCode) != photon.OperationAuthenticate {
			return hookResult{}, nil
		}
		version, _ := m.Params.GetString(photon.ParamAppVersion)
		userID, _ := m.Params.GetString(photon.ParamUserID)
		if err := d.session.SetAuthIdentity(version, userID); err != nil {
			return hookResult{}, err
		}
		d.log.Debug().Str("app_version", version).Msg("authenticate")
	case *photon.EventData:
		switch photon.ClassifyEvent(m.EventCode) {
		case photon.EventGameList, photon.EventGameListUpdate:
			return d.rewriteGameList(m)
		}
	}
	return hookResult{}, nil
}

func (d *Dispatcher) rewriteGameList(m *photon.EventData) (hookResult, error) {
	flags, err := d.session.SnapshotFlags()
	if err != nil {
		return hookResult{}, err
	}
	list, err := photon.RoomInfoListFromParameters(m.Params)
	if err != nil {
		return hookResult{}, fmt.Errorf("game list: %w", err)
	}
	out, changed := d.lobby.Rewrite(list, flags)
	if !changed {
		return hookResult{}, nil
	}
	return hookResult{
		action:  change,
		message: &photon.EventData{EventCode: m.EventCode, Params: out.IntoParameters(m.Params)},
	}, nil
}
