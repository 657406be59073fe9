package hax

import "github.com/dkeye/RelayHax/internal/photon"

// MethodName is the result of resolving an RPC call. The zero value is Unresolved.
type MethodName struct {
	name     string
	resolved bool
}

var Unresolved = MethodName{}

func (m MethodName) Resolved() bool { return m.resolved }

func (m MethodName) String() string {
	if !m.resolved {
		return "?"
	}
	return m.name
}

// RPCIntrospector maps the compact method references used on the wire back to names.
// methods is the game's RPC list, indexed by shortcut.
type RPCIntrospector struct {
	methods []string
}

func NewRPCIntrospector(methods []string) *RPCIntrospector {
	return &RPCIntrospector{methods: append([]string(nil), methods...)}
}

func (r *RPCIntrospector) Resolve(call photon.RpcCall) MethodName {
	if call.HasMethodName && call.MethodName != "" {
		return MethodName{name: call.MethodName, resolved: true}
	}
	if r == nil || !call.HasShortcut {
		return Unresolved
	}
	idx := int(call.Shortcut)
	if idx >= len(r.methods) || r.methods[idx] == "" {
		return Unresolved
	}
	return MethodName{name: r.methods[idx], resolved: true}
}
