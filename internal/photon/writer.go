package photon

import (
	"encoding/binary"
	"fmt"
	"math"
)

type writer struct {
	buf []byte
}

func (w *writer) u8(b byte) { w.buf = append(w.buf, b) }

func (w *writer) u16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *writer) u32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }

func (w *writer) u64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

func (w *writer) count(n int) error {
	if n > math.MaxUint16 {
		return &EncodeError{Err: fmt.Errorf("length %d exceeds 16 bit limit", n)}
	}
	w.u16(uint16(n))
	return nil
}

func (w *writer) str(s string) error {
	if err := w.count(len(s)); err != nil {
		return err
	}
	w.buf = append(w.buf, s...)
	return nil
}

// typeOf returns the wire type code for a Go value.
func typeOf(v any) (byte, error) {
	switch v.(type) {
	case nil:
		return TypeNull, nil
	case bool:
		return TypeBoolean, nil
	case byte:
		return TypeByte, nil
	case int16:
		return TypeShort, nil
	case int32:
		return TypeInteger, nil
	case int64:
		return TypeLong, nil
	case float32:
		return TypeFloat, nil
	case float64:
		return TypeDouble, nil
	case string:
		return TypeString, nil
	case []byte:
		return TypeByteArray, nil
	case []int32:
		return TypeIntArray, nil
	case []string:
		return TypeStringArray, nil
	case []any:
		return TypeObjectArray, nil
	case Hashtable:
		return TypeHashtable, nil
	case Dictionary:
		return TypeDictionary, nil
	case Array:
		return TypeArray, nil
	case Custom:
		return TypeCustom, nil
	default:
		return 0, &EncodeError{Err: fmt.Errorf("%w: %T", errUnsupported, v)}
	}
}

func (w *writer) value(v any) error {
	t, err := typeOf(v)
	if err != nil {
		return err
	}
	w.u8(t)
	return w.valueData(t, v)
}

// valueData writes v without its type code; v must match t.
func (w *writer) valueData(t byte, v any) error {
	if vt, err := typeOf(v); err != nil {
		return err
	} else if vt != t {
		return &EncodeError{Err: fmt.Errorf("value %T does not match declared type %q", v, t)}
	}

	switch x := v.(type) {
	case nil:
	case bool:
		if x {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case byte:
		w.u8(x)
	case int16:
		w.u16(uint16(x))
	case int32:
		w.u32(uint32(x))
	case int64:
		w.u64(uint64(x))
	case float32:
		w.u32(math.Float32bits(x))
	case float64:
		w.u64(math.Float64bits(x))
	case string:
		return w.str(x)
	case []byte:
		w.u32(uint32(len(x)))
		w.buf = append(w.buf, x...)
	case []int32:
		w.u32(uint32(len(x)))
		for _, i := range x {
			w.u32(uint32(i))
		}
	case []string:
		if err := w.count(len(x)); err != nil {
			return err
		}
		for _, s := range x {
			if err := w.str(s); err != nil {
				return err
			}
		}
	case []any:
		if err := w.count(len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := w.value(item); err != nil {
				return err
			}
		}
	case Hashtable:
		if err := w.count(len(x)); err != nil {
			return err
		}
		for _, e := range x {
			if err := w.value(e.Key); err != nil {
				return err
			}
			if err := w.value(e.Value); err != nil {
				return err
			}
		}
	case Dictionary:
		w.u8(x.KeyType)
		w.u8(x.ValueType)
		if err := w.count(len(x.Entries)); err != nil {
			return err
		}
		for _, e := range x.Entries {
			if err := w.typedOrTagged(x.KeyType, e.Key); err != nil {
				return err
			}
			if err := w.typedOrTagged(x.ValueType, e.Value); err != nil {
				return err
			}
		}
	case Array:
		if err := w.count(len(x.Items)); err != nil {
			return err
		}
		w.u8(x.ElemType)
		for _, item := range x.Items {
			if err := w.valueData(x.ElemType, item); err != nil {
				return err
			}
		}
	case Custom:
		w.u8(x.Code)
		if err := w.count(len(x.Data)); err != nil {
			return err
		}
		w.buf = append(w.buf, x.Data...)
	}
	return nil
}

func (w *writer) typedOrTagged(t byte, v any) error {
	if t == TypeUnknown || t == TypeNull {
		return w.value(v)
	}
	return w.valueData(t, v)
}

func (w *writer) parameters(p Parameters) error {
	if err := w.count(len(p)); err != nil {
		return err
	}
	for _, e := range p {
		w.u8(e.Code)
		if err := w.value(e.Value); err != nil {
			return err
		}
	}
	return nil
}
