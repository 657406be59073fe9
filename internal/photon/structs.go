package photon

import "errors"

var ErrNoSerializedData = errors.New("no serialized object data")

// RoomInfo is a view over one room's property table in a lobby listing.
// Custom properties share the table with the byte-keyed well-known ones.
type RoomInfo struct {
	Props Hashtable
}

func RoomInfoFromValue(v any) (RoomInfo, error) {
	h, ok := v.(Hashtable)
	if !ok {
		return RoomInfo{}, missing("room property table")
	}
	return RoomInfo{Props: h}, nil
}

// CustomString returns a string-keyed custom property holding a string.
func (r RoomInfo) CustomString(key string) (string, bool) {
	return r.Props.GetString(key)
}

// WithCustomString returns a copy with key set to value; r is left untouched.
func (r RoomInfo) WithCustomString(key, value string) RoomInfo {
	props := r.Props.Clone()
	props.Set(key, value)
	return RoomInfo{Props: props}
}

// RoomInfoList is the room-name to room-properties table of a game list event.
type RoomInfoList struct {
	Games Hashtable
}

func RoomInfoListFromParameters(p Parameters) (RoomInfoList, error) {
	games, ok := p.GetHashtable(ParamGameList)
	if !ok {
		return RoomInfoList{}, missing("game list")
	}
	return RoomInfoList{Games: games}, nil
}

// IntoParameters returns a copy of p carrying this list.
func (l RoomInfoList) IntoParameters(p Parameters) Parameters {
	out := p.Clone()
	out.Set(ParamGameList, l.Games)
	return out
}

type Player struct {
	Nickname   string
	UserID     string
	IsInactive bool
	Custom     Hashtable
}

func PlayerFromHashtable(h Hashtable) Player {
	var p Player
	for _, e := range h {
		switch k := e.Key.(type) {
		case byte:
			switch k {
			case ActorPropNickname:
				p.Nickname, _ = e.Value.(string)
			case ActorPropUserID:
				p.UserID, _ = e.Value.(string)
			case ActorPropIsInactive:
				p.IsInactive, _ = e.Value.(bool)
			}
		case string:
			p.Custom = append(p.Custom, e)
		}
	}
	return p
}

type JoinGameRequest struct {
	RoomName         string
	PlayerProperties Hashtable
	Broadcast        bool
}

func JoinGameRequestFromParameters(p Parameters) (JoinGameRequest, error) {
	var req JoinGameRequest
	name, ok := p.GetString(ParamRoomName)
	if !ok {
		return req, missing("room name")
	}
	req.RoomName = name
	req.PlayerProperties, _ = p.GetHashtable(ParamPlayerProperties)
	if v, ok := p.Get(ParamBroadcast); ok {
		req.Broadcast, _ = v.(bool)
	}
	return req, nil
}

type JoinGameResponseSuccess struct {
	ActorNr          int32
	ActorList        []int32
	GameProperties   Hashtable
	PlayerProperties Hashtable
}

func JoinGameResponseSuccessFromParameters(p Parameters) (JoinGameResponseSuccess, error) {
	var resp JoinGameResponseSuccess
	v, ok := p.Get(ParamActorNr)
	nr, isInt := v.(int32)
	if !ok || !isInt {
		return resp, missing("actor number")
	}
	resp.ActorNr = nr
	if v, ok := p.Get(ParamActorList); ok {
		resp.ActorList, _ = v.([]int32)
	}
	resp.GameProperties, _ = p.GetHashtable(ParamGameProperties)
	resp.PlayerProperties, _ = p.GetHashtable(ParamPlayerProperties)
	return resp, nil
}

// Players decodes the actor-number keyed property tables, skipping entries
// of unexpected shape.
func (r JoinGameResponseSuccess) Players() map[int32]Player {
	out := make(map[int32]Player, len(r.PlayerProperties))
	for _, e := range r.PlayerProperties {
		id, ok := e.Key.(int32)
		if !ok {
			continue
		}
		props, ok := e.Value.(Hashtable)
		if !ok {
			continue
		}
		out[id] = PlayerFromHashtable(props)
	}
	return out
}

// RaiseEvent is the operation a client uses to send a custom event through the relay.
type RaiseEvent struct {
	EventCode byte
	Data      any
}

func RaiseEventFromParameters(p Parameters) (RaiseEvent, error) {
	v, ok := p.Get(ParamCode)
	code, isByte := v.(byte)
	if !ok || !isByte {
		return RaiseEvent{}, missing("event code")
	}
	data, _ := p.Get(ParamData)
	return RaiseEvent{EventCode: code, Data: data}, nil
}

// Keys of an RPC call table.
const (
	rpcKeyViewID    byte = 0
	rpcKeyPrefix    byte = 1
	rpcKeyTimestamp byte = 2
	rpcKeyMethod    byte = 3
	rpcKeyParams    byte = 4
	rpcKeyShortcut  byte = 5
)

// viewIDsPerActor is the number of network view ids reserved for each actor.
const viewIDsPerActor = 1000

type RpcCall struct {
	ViewID          int32
	Prefix          int16
	ServerTimestamp int32
	MethodName      string
	HasMethodName   bool
	Shortcut        byte
	HasShortcut     bool
	Parameters      []any
}

func RpcCallFromHashtable(h Hashtable) (RpcCall, error) {
	var c RpcCall
	v, ok := h.Get(rpcKeyViewID)
	id, isInt := v.(int32)
	if !ok || !isInt {
		return c, missing("rpc view id")
	}
	c.ViewID = id
	if v, ok := h.Get(rpcKeyPrefix); ok {
		c.Prefix, _ = v.(int16)
	}
	if v, ok := h.Get(rpcKeyTimestamp); ok {
		c.ServerTimestamp, _ = v.(int32)
	}
	c.MethodName, c.HasMethodName = h.GetString(rpcKeyMethod)
	if v, ok := h.Get(rpcKeyShortcut); ok {
		c.Shortcut, c.HasShortcut = v.(byte)
	}
	if v, ok := h.Get(rpcKeyParams); ok {
		c.Parameters, _ = v.([]any)
	}
	return c, nil
}

// OwnerID is the actor number owning the call's network view.
func (c RpcCall) OwnerID() int32 {
	return c.ViewID / viewIDsPerActor
}

// RpcEvent is the RPC as delivered to other clients.
type RpcEvent struct {
	SenderActor int32
	Data        Hashtable
}

func RpcEventFromParameters(p Parameters) (RpcEvent, error) {
	var e RpcEvent
	data, ok := p.GetHashtable(ParamData)
	if !ok {
		return e, missing("rpc data")
	}
	e.Data = data
	if v, ok := p.Get(ParamActorNr); ok {
		e.SenderActor, _ = v.(int32)
	}
	return e, nil
}

func (e RpcEvent) Call() (RpcCall, error) {
	return RpcCallFromHashtable(e.Data)
}

type InstantiationEvent struct {
	SenderActor int32
	Data        Hashtable
}

func InstantiationEventFromParameters(p Parameters) (InstantiationEvent, error) {
	var e InstantiationEvent
	data, ok := p.GetHashtable(ParamData)
	if !ok {
		return e, missing("instantiation data")
	}
	e.Data = data
	if v, ok := p.Get(ParamActorNr); ok {
		e.SenderActor, _ = v.(int32)
	}
	return e, nil
}

type InstantiationData struct {
	PrefabName      string
	Position        any
	Rotation        any
	Group           byte
	ViewIDs         []int32
	InstantiationID int32
	ServerTime      int32
	Data            []any
}

func (e InstantiationEvent) Decode() (InstantiationData, error) {
	var d InstantiationData
	name, ok := e.Data.GetString(byte(0))
	if !ok {
		return d, missing("prefab name")
	}
	d.PrefabName = name
	d.Position, _ = e.Data.Get(byte(1))
	d.Rotation, _ = e.Data.Get(byte(2))
	if v, ok := e.Data.Get(byte(3)); ok {
		d.Group, _ = v.(byte)
	}
	if v, ok := e.Data.Get(byte(4)); ok {
		d.ViewIDs, _ = v.([]int32)
	}
	if v, ok := e.Data.Get(byte(5)); ok {
		d.Data, _ = v.([]any)
	}
	if v, ok := e.Data.Get(byte(6)); ok {
		d.ServerTime, _ = v.(int32)
	}
	if v, ok := e.Data.Get(byte(7)); ok {
		d.InstantiationID, _ = v.(int32)
	}
	return d, nil
}

type SendSerializeEvent struct {
	SenderActor int32
	Data        any
}

func SendSerializeEventFromParameters(p Parameters) (SendSerializeEvent, error) {
	var e SendSerializeEvent
	data, ok := p.Get(ParamData)
	if !ok {
		return e, missing("serialize data")
	}
	e.Data = data
	if v, ok := p.Get(ParamActorNr); ok {
		e.SenderActor, _ = v.(int32)
	}
	return e, nil
}

// SerializedObject is one network view's state stream.
type SerializedObject struct {
	ViewID int32
	Stream []any
}

// firstObjectKey is the first short key holding per-view data in the table layout.
const firstObjectKey int16 = 10

// SerializedData extracts the per-view streams. Both the table layout (short keys
// from 10 upwards) and the array layout (timestamp, prefix, then one array per view)
// are accepted.
func (e SendSerializeEvent) SerializedData() ([]SerializedObject, error) {
	var raw []any
	switch d := e.Data.(type) {
	case Hashtable:
		for _, entry := range d {
			if k, ok := entry.Key.(int16); ok && k >= firstObjectKey {
				raw = append(raw, entry.Value)
			}
		}
	case []any:
		if len(d) > 2 {
			raw = d[2:]
		}
	default:
		return nil, ErrNoSerializedData
	}

	out := make([]SerializedObject, 0, len(raw))
	for _, r := range raw {
		fields, ok := r.([]any)
		if !ok || len(fields) == 0 {
			return nil, ErrNoSerializedData
		}
		id, ok := fields[0].(int32)
		if !ok {
			return nil, ErrNoSerializedData
		}
		out = append(out, SerializedObject{ViewID: id, Stream: fields[1:]})
	}
	if len(out) == 0 {
		return nil, ErrNoSerializedData
	}
	return out, nil
}
