package photon

// Operation codes.
const (
	OpJoinGame         byte = 226
	OpCreateGame       byte = 227
	OpJoinLobby        byte = 229
	OpAuthenticate     byte = 230
	OpAuthenticateOnce byte = 231
	OpRaiseEvent       byte = 253
	OpLeave            byte = 254
)

// Event codes sent by the relay.
const (
	EvGameListUpdate    byte = 229
	EvGameList          byte = 230
	EvPropertiesChanged byte = 253
	EvLeave             byte = 254
	EvJoin              byte = 255
)

// Event codes raised by the game's networking layer on top of the relay.
const (
	EvRPC                   byte = 200
	EvSendSerialize         byte = 201
	EvInstantiation         byte = 202
	EvDestroy               byte = 204
	EvSendSerializeReliable byte = 206
)

// Parameter codes.
const (
	ParamAppVersion       byte = 220
	ParamGameList         byte = 222
	ParamApplicationID    byte = 224
	ParamUserID           byte = 225
	ParamAddress          byte = 230
	ParamCode             byte = 244
	ParamData             byte = 245
	ParamReceiverGroup    byte = 246
	ParamCache            byte = 247
	ParamGameProperties   byte = 248
	ParamPlayerProperties byte = 249
	ParamBroadcast        byte = 250
	ParamActorList        byte = 252
	ParamActorNr          byte = 254
	ParamRoomName         byte = 255
)

// Well-known byte keys of actor property tables.
const (
	ActorPropUserID     byte = 253
	ActorPropIsInactive byte = 254
	ActorPropNickname   byte = 255
)

// Well-known byte keys of room property tables.
const (
	RoomPropRemoved     byte = 251
	RoomPropPlayerCount byte = 252
	RoomPropIsOpen      byte = 253
	RoomPropIsVisible   byte = 254
	RoomPropMaxPlayers  byte = 255
)

// OperationKind classifies operation codes this module acts on.
type OperationKind int

const (
	OperationUnclassified OperationKind = iota
	OperationAuthenticate
	OperationJoinGame
	OperationRaiseEvent
)

func ClassifyOperation(code byte) OperationKind {
	switch code {
	case OpAuthenticate, OpAuthenticateOnce:
		return OperationAuthenticate
	case OpJoinGame:
		return OperationJoinGame
	case OpRaiseEvent:
		return OperationRaiseEvent
	default:
		return OperationUnclassified
	}
}

func (k OperationKind) String() string {
	switch k {
	case OperationAuthenticate:
		return "Authenticate"
	case OperationJoinGame:
		return "JoinGame"
	case OperationRaiseEvent:
		return "RaiseEvent"
	default:
		return "Unclassified"
	}
}

// EventKind classifies event codes this module acts on.
type EventKind int

const (
	EventUnclassified EventKind = iota
	EventGameList
	EventGameListUpdate
	EventJoin
	EventRPC
	EventSendSerialize
	EventSendSerializeReliable
	EventInstantiation
)

func ClassifyEvent(code byte) EventKind {
	switch code {
	case EvGameList:
		return EventGameList
	case EvGameListUpdate:
		return EventGameListUpdate
	case EvJoin:
		return EventJoin
	case EvRPC:
		return EventRPC
	case EvSendSerialize:
		return EventSendSerialize
	case EvSendSerializeReliable:
		return EventSendSerializeReliable
	case EvInstantiation:
		return EventInstantiation
	default:
		return EventUnclassified
	}
}

func (k EventKind) String() string {
	switch k {
	case EventGameList:
		return "GameList"
	case EventGameListUpdate:
		return "GameListUpdate"
	case EventJoin:
		return "Join"
	case EventRPC:
		return "RPC"
	case EventSendSerialize:
		return "SendSerialize"
	case EventSendSerializeReliable:
		return "SendSerializeReliable"
	case EventInstantiation:
		return "Instantiation"
	default:
		return "Unclassified"
	}
}
