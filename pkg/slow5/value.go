package slow5

import (
	"fmt"
	"reflect"
	"strings"
)

// Number is the set of element types an auxiliary array can hold
type Number interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Value is a typed auxiliary value. The zero Value is invalid. Values own
// their memory and are immutable.
type Value struct {
	typ  FieldType
	data any // scalar, string, []T, or uint8 enum index

	label    string // enum label, empty until resolved
	resolved bool   // enum index is known
}

// Scalar constructors, one per primitive field type
func Int8(v int8) Value       { return Value{typ: TypeInt8, data: v} }
func Int16(v int16) Value     { return Value{typ: TypeInt16, data: v} }
func Int32(v int32) Value     { return Value{typ: TypeInt32, data: v} }
func Int64(v int64) Value     { return Value{typ: TypeInt64, data: v} }
func Uint8(v uint8) Value     { return Value{typ: TypeUint8, data: v} }
func Uint16(v uint16) Value   { return Value{typ: TypeUint16, data: v} }
func Uint32(v uint32) Value   { return Value{typ: TypeUint32, data: v} }
func Uint64(v uint64) Value   { return Value{typ: TypeUint64, data: v} }
func Float32(v float32) Value { return Value{typ: TypeFloat32, data: v} }
func Float64(v float64) Value { return Value{typ: TypeFloat64, data: v} }
func Char(c byte) Value       { return Value{typ: TypeChar, data: c} }
func String(s string) Value   { return Value{typ: TypeString, data: s} }

// Enum is an enum value given by label; the index is resolved against the
// field's label table when the value is set.
func Enum(label string) Value {
	return Value{typ: TypeEnum, label: label}
}

// EnumIndex is an enum value given by its position in the label table
func EnumIndex(i uint8) Value {
	return Value{typ: TypeEnum, data: i, resolved: true}
}

// Array returns an array value holding a copy of vs
func Array[T Number](vs []T) Value {
	elems := append([]T{}, vs...)
	var t FieldType
	switch any(elems).(type) {
	case []int8:
		t = TypeInt8
	case []int16:
		t = TypeInt16
	case []int32:
		t = TypeInt32
	case []int64:
		t = TypeInt64
	case []uint8:
		t = TypeUint8
	case []uint16:
		t = TypeUint16
	case []uint32:
		t = TypeUint32
	case []uint64:
		t = TypeUint64
	case []float32:
		t = TypeFloat32
	case []float64:
		t = TypeFloat64
	}
	return Value{typ: ArrayOf(t), data: elems}
}

// Type returns the value's type
func (v Value) Type() FieldType {
	return v.typ
}

// IsValid reports whether v holds a value
func (v Value) IsValid() bool {
	return v.typ.valid() && (v.data != nil || v.label != "")
}

// Label returns the label of an enum value
func (v Value) Label() (string, bool) {
	if !v.typ.IsEnum() || v.label == "" {
		return "", false
	}
	return v.label, true
}

// EnumIndex returns the label table index of an enum value
func (v Value) EnumIndex() (uint8, bool) {
	if !v.typ.IsEnum() || !v.resolved {
		return 0, false
	}
	return v.data.(uint8), true
}

// Interface returns the underlying Go value: a number, byte, string, a copy
// of a slice of numbers, or the label of an enum.
func (v Value) Interface() any {
	if v.typ.IsEnum() {
		return v.label
	}
	switch d := v.data.(type) {
	case []int8:
		return append([]int8{}, d...)
	case []int16:
		return append([]int16{}, d...)
	case []int32:
		return append([]int32{}, d...)
	case []int64:
		return append([]int64{}, d...)
	case []uint8:
		return append([]uint8{}, d...)
	case []uint16:
		return append([]uint16{}, d...)
	case []uint32:
		return append([]uint32{}, d...)
	case []uint64:
		return append([]uint64{}, d...)
	case []float32:
		return append([]float32{}, d...)
	case []float64:
		return append([]float64{}, d...)
	default:
		return d
	}
}

// Equal reports whether two values have the same type and contents
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	if v.typ.IsEnum() {
		if v.resolved && o.resolved {
			return v.data == o.data
		}
		return v.label == o.label
	}
	return reflect.DeepEqual(v.data, o.data)
}

func (v Value) String() string {
	if v.typ.IsEnum() {
		if v.label != "" {
			return v.label
		}
		return fmt.Sprintf("#%v", v.data)
	}
	switch d := v.data.(type) {
	case byte:
		if v.typ == TypeChar {
			return string(rune(d))
		}
		return fmt.Sprint(d)
	case string:
		return d
	case nil:
		return ""
	default:
		s := fmt.Sprint(d)
		if v.typ.IsArray() {
			return strings.ReplaceAll(strings.Trim(s, "[]"), " ", ",")
		}
		return s
	}
}

// As returns the value as T when T matches the declared type exactly.
// Enum values convert to their label as a string.
func As[T any](v Value) (T, bool) {
	var zero T
	if v.typ.IsEnum() {
		if s, ok := any(v.label).(T); ok && v.label != "" {
			return s, true
		}
		return zero, false
	}
	if !v.typ.IsArray() {
		out, ok := v.data.(T)
		return out, ok
	}
	out, ok := v.Interface().(T)
	return out, ok
}
