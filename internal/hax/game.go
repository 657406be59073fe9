package hax

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkeye/RelayHax/internal/photon"
)

// GameObserver watches in-match traffic. It never changes frames; the only side
// effect is recording the join result in the Session.
type GameObserver struct {
	session *Session
	rpc     *RPCIntrospector
	log     zerolog.Logger
	trace   zerolog.Logger
}

func NewGameObserver(s *Session, rpc *RPCIntrospector, log, trace zerolog.Logger) *GameObserver {
	return &GameObserver{
		session: s,
		rpc:     rpc,
		log:     log.With().Str("module", "hax.game").Logger(),
		trace:   trace,
	}
}

// Observe inspects one decoded game-channel message. Errors are local to the frame.
func (g *GameObserver) Observe(msg photon.Message, dir Direction) error {
	switch m := msg.(type) {
	case *photon.OperationRequest:
		return g.onRequest(m, dir)
	case *photon.OperationResponse:
		if photon.ClassifyOperation(m.OpCode) == photon.OperationJoinGame && m.ReturnCode == 0 {
			return g.onJoinSuccess(m)
		}
	case *photon.EventData:
		return g.onEvent(m, dir)
	}
	return nil
}

func (g *GameObserver) onRequest(m *photon.OperationRequest, dir Direction) error {
	switch photon.ClassifyOperation(m.OpCode) {
	case photon.OperationJoinGame:
		req, err := photon.JoinGameRequestFromParameters(m.Params)
		if err != nil {
			return fmt.Errorf("join request: %w", err)
		}
		g.log.Debug().Str("room", req.RoomName).Bool("broadcast", req.Broadcast).Msg("game join request")
	case photon.OperationRaiseEvent:
		ev, err := photon.RaiseEventFromParameters(m.Params)
		if err != nil {
			return fmt.Errorf("raise event: %w", err)
		}
		if photon.ClassifyEvent(ev.EventCode) != photon.EventRPC {
			return nil
		}
		data, ok := ev.Data.(photon.Hashtable)
		if !ok {
			return fmt.Errorf("rpc call: %w", photon.ErrMissingField)
		}
		call, err := photon.RpcCallFromHashtable(data)
		if err != nil {
			return fmt.Errorf("rpc call: %w", err)
		}
		g.logRPC(call, dir)
	}
	return nil
}

func (g *GameObserver) onJoinSuccess(m *photon.OperationResponse) error {
	resp, err := photon.JoinGameResponseSuccessFromParameters(m.Params)
	if err != nil {
		return fmt.Errorf("join response: %w", err)
	}
	players := resp.Players()
	for id := range players {
		g.log.Debug().Int32("actor", id).Msg("found actor")
	}
	if err := g.session.ApplyJoin(resp.ActorNr, players); err != nil {
		return err
	}
	g.log.Debug().Int32("actor_nr", resp.ActorNr).Int("players", len(players)).Msg("game join response")
	return nil
}

func (g *GameObserver) onEvent(m *photon.EventData, dir Direction) error {
	switch photon.ClassifyEvent(m.EventCode) {
	case photon.EventJoin:
		props, ok := m.Params.GetHashtable(photon.ParamPlayerProperties)
		if !ok {
			return nil
		}
		p := photon.PlayerFromHashtable(props)
		actor, _ := m.Params.Get(photon.ParamActorNr)
		nr, _ := actor.(int32)
		g.log.Debug().Int32("actor", nr).Msg("player joined")
		g.trace.Trace().Int32("actor", nr).Str("nickname", p.Nickname).Str("user_id", p.UserID).
			Msg("received player info")
	case photon.EventInstantiation:
		ev, err := photon.InstantiationEventFromParameters(m.Params)
		if err != nil {
			return fmt.Errorf("instantiation: %w", err)
		}
		data, err := ev.Decode()
		if err != nil {
			return fmt.Errorf("instantiation: %w", err)
		}
		g.log.Debug().Str("prefab", data.PrefabName).Int32("id", data.InstantiationID).
			Int32("sender", ev.SenderActor).Msg("instantiation")
	case photon.EventSendSerialize, photon.EventSendSerializeReliable:
		ev, err := photon.SendSerializeEventFromParameters(m.Params)
		if err != nil {
			return fmt.Errorf("send serialize: %w", err)
		}
		objs, err := ev.SerializedData()
		if err != nil {
			return fmt.Errorf("send serialize: %w", err)
		}
		for _, obj := range objs {
			g.trace.Trace().Str("direction", dir.String()).Int32("view_id", obj.ViewID).
				Str("data", fmt.Sprintf("%v", obj.Stream)).Msg("SendSerialize")
		}
	case photon.EventRPC:
		ev, err := photon.RpcEventFromParameters(m.Params)
		if err != nil {
			return fmt.Errorf("rpc event: %w", err)
		}
		call, err := ev.Call()
		if err != nil {
			return fmt.Errorf("rpc event: %w", err)
		}
		g.logRPC(call, dir)
	}
	return nil
}

func (g *GameObserver) logRPC(call photon.RpcCall, dir Direction) {
	args := make([]string, 0, len(call.Parameters))
	for _, p := range call.Parameters {
		args = append(args, fmt.Sprintf("%v", p))
	}
	g.log.Debug().
		Str("method_name", g.rpc.Resolve(call).String()).
		Int32("sender", call.OwnerID()).
		Str("parameters", strings.Join(args, ",")).
		Str("direction", dir.String()).
		Msg("RPC call")
}
