package slow5

import (
	"encoding/binary"
	"math"

	"github.com/ssargent/slow5/pkg/codec"
)

// checkValue validates v against the descriptor and returns it with any
// enum label resolved to its index.
func checkValue(d FieldDescriptor, v Value) (Value, error) {
	if !d.Type.supported() {
		return Value{}, wrapf(ErrAuxTypeUnsupported, "field %s of type %s", d.Name, d.Type)
	}
	if !v.IsValid() {
		return Value{}, &TypeMismatchError{Field: d.Name, Declared: d.Type, Requested: "invalid value"}
	}
	if v.typ != d.Type {
		return Value{}, &TypeMismatchError{Field: d.Name, Declared: d.Type, Requested: v.typ.String()}
	}
	if !d.Type.IsEnum() {
		return v, nil
	}

	if !v.resolved {
		for i, l := range d.EnumLabels {
			if l == v.label {
				return Value{typ: TypeEnum, data: uint8(i), label: l, resolved: true}, nil
			}
		}
		return Value{}, wrapf(ErrUnknownEnumLabel, "field %s has no label %q", d.Name, v.label)
	}
	return resolveEnum(d, v.data.(uint8))
}

// resolveEnum maps a stored index through the label table
func resolveEnum(d FieldDescriptor, idx uint8) (Value, error) {
	if int(idx) >= len(d.EnumLabels) {
		return Value{}, wrapf(ErrEnumLabelOutOfRange, "field %s index %d, %d labels", d.Name, idx, len(d.EnumLabels))
	}
	return Value{typ: TypeEnum, data: idx, label: d.EnumLabels[idx], resolved: true}, nil
}

// appendValue appends the engine encoding of a checked value to dst
func appendValue(dst []byte, v Value) []byte {
	switch d := v.data.(type) {
	case int8:
		return append(dst, byte(d))
	case int16:
		return binary.LittleEndian.AppendUint16(dst, uint16(d))
	case int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(d))
	case int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(d))
	case uint8:
		return append(dst, d)
	case uint16:
		return binary.LittleEndian.AppendUint16(dst, d)
	case uint32:
		return binary.LittleEndian.AppendUint32(dst, d)
	case uint64:
		return binary.LittleEndian.AppendUint64(dst, d)
	case float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(d))
	case float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(d))
	case string:
		return append(dst, d...)
	case []int8:
		for _, e := range d {
			dst = append(dst, byte(e))
		}
	case []int16:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(e))
		}
	case []int32:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(e))
		}
	case []int64:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(e))
		}
	case []uint8:
		return append(dst, d...)
	case []uint16:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint16(dst, e)
		}
	case []uint32:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint32(dst, e)
		}
	case []uint64:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint64(dst, e)
		}
	case []float32:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(e))
		}
	case []float64:
		for _, e := range d {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(e))
		}
	}
	return dst
}

// decodeValue copies an engine-encoded value into an owned Value. Enum
// values keep their raw index and are resolved on access.
func decodeValue(d FieldDescriptor, raw []byte) (Value, error) {
	t := d.Type
	if !t.supported() {
		// kept undecoded; access reports the unsupported type
		return Value{typ: t}, nil
	}
	if t == TypeString {
		return String(string(raw)), nil
	}

	w := t.kind.Width()
	if w == 0 || len(raw)%w != 0 || (!t.array && len(raw) != w) {
		return Value{}, wrapf(ErrDecode, "field %s: %d bytes for type %s", d.Name, len(raw), t)
	}

	if !t.array {
		switch t.kind {
		case codec.AuxInt8:
			return Int8(int8(raw[0])), nil
		case codec.AuxInt16:
			return Int16(int16(binary.LittleEndian.Uint16(raw))), nil
		case codec.AuxInt32:
			return Int32(int32(binary.LittleEndian.Uint32(raw))), nil
		case codec.AuxInt64:
			return Int64(int64(binary.LittleEndian.Uint64(raw))), nil
		case codec.AuxUint8:
			return Uint8(raw[0]), nil
		case codec.AuxUint16:
			return Uint16(binary.LittleEndian.Uint16(raw)), nil
		case codec.AuxUint32:
			return Uint32(binary.LittleEndian.Uint32(raw)), nil
		case codec.AuxUint64:
			return Uint64(binary.LittleEndian.Uint64(raw)), nil
		case codec.AuxFloat:
			return Float32(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
		case codec.AuxDouble:
			return Float64(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil
		case codec.AuxChar:
			return Char(raw[0]), nil
		case codec.AuxEnum:
			return EnumIndex(raw[0]), nil
		}
	}

	n := len(raw) / w
	switch t.kind {
	case codec.AuxInt8:
		return Array(decodeArray(raw, n, func(b []byte) int8 { return int8(b[0]) })), nil
	case codec.AuxInt16:
		return Array(decodeArray(raw, n, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })), nil
	case codec.AuxInt32:
		return Array(decodeArray(raw, n, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })), nil
	case codec.AuxInt64:
		return Array(decodeArray(raw, n, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })), nil
	case codec.AuxUint8:
		return Array(decodeArray(raw, n, func(b []byte) uint8 { return b[0] })), nil
	case codec.AuxUint16:
		return Array(decodeArray(raw, n, binary.LittleEndian.Uint16)), nil
	case codec.AuxUint32:
		return Array(decodeArray(raw, n, binary.LittleEndian.Uint32)), nil
	case codec.AuxUint64:
		return Array(decodeArray(raw, n, binary.LittleEndian.Uint64)), nil
	case codec.AuxFloat:
		return Array(decodeArray(raw, n, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })), nil
	case codec.AuxDouble:
		return Array(decodeArray(raw, n, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })), nil
	}
	return Value{}, wrapf(ErrAuxTypeUnsupported, "field %s of type %s", d.Name, t)
}

func decodeArray[T Number](raw []byte, n int, elem func([]byte) T) []T {
	w := len(raw) / max(n, 1)
	out := make([]T, n)
	for i := range out {
		out[i] = elem(raw[i*w : (i+1)*w])
	}
	return out
}
