package photon

import (
	"encoding/binary"
	"math"
)

const maxDepth = 32

type reader struct {
	buf   []byte
	off   int
	depth int
}

func (r *reader) fail(err error) error {
	return &DecodeError{Offset: r.off, Err: err}
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.fail(errNegativeLength)
	}
	if r.remaining() < n {
		return nil, r.fail(errTruncated)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) i16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// count reads an unsigned 16 bit length.
func (r *reader) count() (int, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(b)), nil
}

func (r *reader) i32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) i64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// capFor bounds a preallocation by what the remaining input could possibly hold.
func (r *reader) capFor(n int) int {
	if rem := r.remaining(); n > rem {
		return rem
	}
	return n
}

func (r *reader) value() (any, error) {
	t, err := r.u8()
	if err != nil {
		return nil, err
	}
	return r.valueOfType(t)
}

func (r *reader) valueOfType(t byte) (any, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxDepth {
		return nil, r.fail(errTooDeep)
	}

	switch t {
	case TypeNull, TypeUnknown:
		return nil, nil
	case TypeBoolean:
		b, err := r.u8()
		return b != 0, err
	case TypeByte:
		return r.u8()
	case TypeShort:
		return r.i16()
	case TypeInteger:
		return r.i32()
	case TypeLong:
		return r.i64()
	case TypeFloat:
		v, err := r.i32()
		return math.Float32frombits(uint32(v)), err
	case TypeDouble:
		v, err := r.i64()
		return math.Float64frombits(uint64(v)), err
	case TypeString:
		return r.str()
	case TypeByteArray:
		n, err := r.i32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case TypeIntArray:
		n, err := r.i32()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, r.fail(errNegativeLength)
		}
		out := make([]int32, 0, r.capFor(int(n)))
		for i := 0; i < int(n); i++ {
			v, err := r.i32()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case TypeStringArray:
		n, err := r.count()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, r.capFor(n))
		for i := 0; i < n; i++ {
			s, err := r.str()
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case TypeObjectArray:
		n, err := r.count()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, r.capFor(n))
		for i := 0; i < n; i++ {
			v, err := r.value()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case TypeHashtable:
		return r.hashtable()
	case TypeDictionary:
		return r.dictionary()
	case TypeArray:
		return r.array()
	case TypeCustom:
		code, err := r.u8()
		if err != nil {
			return nil, err
		}
		n, err := r.count()
		if err != nil {
			return nil, err
		}
		b, err := r.take(n)
		if err != nil {
			return nil, err
		}
		data := make([]byte, len(b))
		copy(data, b)
		return Custom{Code: code, Data: data}, nil
	default:
		return nil, r.fail(errUnknownType)
	}
}

func (r *reader) str() (string, error) {
	n, err := r.count()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) hashtable() (Hashtable, error) {
	n, err := r.count()
	if err != nil {
		return nil, err
	}
	h := make(Hashtable, 0, r.capFor(n))
	for i := 0; i < n; i++ {
		k, err := r.value()
		if err != nil {
			return nil, err
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		h = append(h, Entry{Key: k, Value: v})
	}
	return h, nil
}

func (r *reader) dictionary() (Dictionary, error) {
	var d Dictionary
	var err error
	if d.KeyType, err = r.u8(); err != nil {
		return d, err
	}
	if d.ValueType, err = r.u8(); err != nil {
		return d, err
	}
	n, err := r.count()
	if err != nil {
		return d, err
	}
	d.Entries = make([]Entry, 0, r.capFor(n))
	for i := 0; i < n; i++ {
		k, err := r.typedOrTagged(d.KeyType)
		if err != nil {
			return d, err
		}
		v, err := r.typedOrTagged(d.ValueType)
		if err != nil {
			return d, err
		}
		d.Entries = append(d.Entries, Entry{Key: k, Value: v})
	}
	return d, nil
}

func (r *reader) typedOrTagged(t byte) (any, error) {
	if t == TypeUnknown || t == TypeNull {
		return r.value()
	}
	return r.valueOfType(t)
}

func (r *reader) array() (Array, error) {
	var a Array
	n, err := r.count()
	if err != nil {
		return a, err
	}
	if a.ElemType, err = r.u8(); err != nil {
		return a, err
	}
	switch a.ElemType {
	case TypeCustom, TypeDictionary, TypeNull, TypeUnknown:
		return a, r.fail(errUnsupported)
	}
	a.Items = make([]any, 0, r.capFor(n))
	for i := 0; i < n; i++ {
		v, err := r.valueOfType(a.ElemType)
		if err != nil {
			return a, err
		}
		a.Items = append(a.Items, v)
	}
	return a, nil
}

func (r *reader) parameters() (Parameters, error) {
	n, err := r.count()
	if err != nil {
		return nil, err
	}
	p := make(Parameters, 0, r.capFor(n))
	for i := 0; i < n; i++ {
		code, err := r.u8()
		if err != nil {
			return nil, err
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		p = append(p, Param{Code: code, Value: v})
	}
	return p, nil
}
