// Package photon implements the relay's binary wire format (Protocol16 framed for
// WebSocket transport) and typed views over the parameter tables it carries.
package photon

// Wire type codes of Protocol16 values.
const (
	TypeNull        byte = '*'
	TypeUnknown     byte = 0
	TypeDictionary  byte = 'D'
	TypeStringArray byte = 'a'
	TypeByte        byte = 'b'
	TypeCustom      byte = 'c'
	TypeDouble      byte = 'd'
	TypeFloat       byte = 'f'
	TypeHashtable   byte = 'h'
	TypeInteger     byte = 'i'
	TypeShort       byte = 'k'
	TypeLong        byte = 'l'
	TypeIntArray    byte = 'n'
	TypeBoolean     byte = 'o'
	TypeString      byte = 's'
	TypeByteArray   byte = 'x'
	TypeArray       byte = 'y'
	TypeObjectArray byte = 'z'
)

// Values decoded from the wire are one of:
//
//	nil, bool, byte, int16, int32, int64, float32, float64, string,
//	[]byte, []int32, []string, []any, Hashtable, Dictionary, Array, Custom

// Entry is a single key/value pair of a Hashtable or Dictionary.
type Entry struct {
	Key   any
	Value any
}

// Hashtable keeps wire order so that an unmodified table encodes back to the same bytes.
type Hashtable []Entry

func (h Hashtable) Get(key any) (any, bool) {
	for _, e := range h {
		if keysEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

func (h Hashtable) GetString(key any) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set overwrites an existing key in place or appends a new one.
func (h *Hashtable) Set(key, value any) {
	for i, e := range *h {
		if keysEqual(e.Key, key) {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Entry{Key: key, Value: value})
}

// Clone copies the entry list. Nested values are shared.
func (h Hashtable) Clone() Hashtable {
	if h == nil {
		return nil
	}
	out := make(Hashtable, len(h))
	copy(out, h)
	return out
}

// Dictionary is a Hashtable with declared key/value wire types.
// TypeUnknown means entries carry their own type code.
type Dictionary struct {
	KeyType   byte
	ValueType byte
	Entries   []Entry
}

// Array is a homogeneous array whose elements are written without type codes.
type Array struct {
	ElemType byte
	Items    []any
}

// Custom is an application-defined type kept as raw bytes.
type Custom struct {
	Code byte
	Data []byte
}

// Param is one entry of an operation or event parameter table.
type Param struct {
	Code  byte
	Value any
}

// Parameters keeps wire order, like Hashtable.
type Parameters []Param

func (p Parameters) Get(code byte) (any, bool) {
	for _, e := range p {
		if e.Code == code {
			return e.Value, true
		}
	}
	return nil, false
}

func (p Parameters) GetString(code byte) (string, bool) {
	v, ok := p.Get(code)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (p Parameters) GetHashtable(code byte) (Hashtable, bool) {
	v, ok := p.Get(code)
	if !ok {
		return nil, false
	}
	h, ok := v.(Hashtable)
	return h, ok
}

func (p *Parameters) Set(code byte, value any) {
	for i, e := range *p {
		if e.Code == code {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Code: code, Value: value})
}

func (p Parameters) Clone() Parameters {
	if p == nil {
		return nil
	}
	out := make(Parameters, len(p))
	copy(out, p)
	return out
}

// keysEqual compares keys without panicking on non-comparable values.
func keysEqual(a, b any) bool {
	switch a.(type) {
	case nil:
		return b == nil
	case bool, byte, int16, int32, int64, float32, float64, string:
		return a == b
	default:
		return false
	}
}
