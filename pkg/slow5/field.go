package slow5

import (
	"strings"

	"github.com/ssargent/slow5/pkg/codec"
)

// FieldType is the declared type of an auxiliary field: a primitive, a
// string, an enum, or an array of a primitive or enum.
type FieldType struct {
	kind  codec.AuxKind
	array bool
}

// Primitive field types
var (
	TypeInt8    = FieldType{kind: codec.AuxInt8}
	TypeInt16   = FieldType{kind: codec.AuxInt16}
	TypeInt32   = FieldType{kind: codec.AuxInt32}
	TypeInt64   = FieldType{kind: codec.AuxInt64}
	TypeUint8   = FieldType{kind: codec.AuxUint8}
	TypeUint16  = FieldType{kind: codec.AuxUint16}
	TypeUint32  = FieldType{kind: codec.AuxUint32}
	TypeUint64  = FieldType{kind: codec.AuxUint64}
	TypeFloat32 = FieldType{kind: codec.AuxFloat}
	TypeFloat64 = FieldType{kind: codec.AuxDouble}
	TypeChar    = FieldType{kind: codec.AuxChar}
	TypeString  = FieldType{kind: codec.AuxString}
	TypeEnum    = FieldType{kind: codec.AuxEnum}
)

// ArrayOf returns the array type with elements of t
func ArrayOf(t FieldType) FieldType {
	return FieldType{kind: t.kind, array: true}
}

// IsArray reports whether t is an array type
func (t FieldType) IsArray() bool {
	return t.array
}

// IsEnum reports whether t is an enum or an array of enums
func (t FieldType) IsEnum() bool {
	return t.kind == codec.AuxEnum
}

// Elem returns the element type of an array, or t itself
func (t FieldType) Elem() FieldType {
	return FieldType{kind: t.kind}
}

func (t FieldType) String() string {
	return codec.AuxType{Kind: t.kind, Array: t.array}.Name()
}

func (t FieldType) valid() bool {
	if t.kind == codec.AuxInvalid || t.kind > codec.AuxEnum {
		return false
	}
	// arrays of char are spelled as strings and strings do not nest
	if t.array && (t.kind == codec.AuxChar || t.kind == codec.AuxString) {
		return false
	}
	return true
}

// supported reports whether values of t can be encoded and decoded
func (t FieldType) supported() bool {
	return !(t.array && t.kind == codec.AuxEnum)
}

func (t FieldType) auxType() codec.AuxType {
	return codec.AuxType{Kind: t.kind, Array: t.array}
}

func fieldTypeOf(t codec.AuxType) FieldType {
	return FieldType{kind: t.Kind, array: t.Array}
}

// FieldPolicy decides what happens when a record omits a declared field
type FieldPolicy uint8

const (
	// PolicyOptional stores the field as absent
	PolicyOptional FieldPolicy = iota
	// PolicyRequired rejects the record
	PolicyRequired
	// PolicyDefault stores the descriptor's Default value
	PolicyDefault
)

func (p FieldPolicy) String() string {
	switch p {
	case PolicyRequired:
		return "required"
	case PolicyDefault:
		return "default"
	default:
		return "optional"
	}
}

const maxEnumLabels = 256

// FieldDescriptor describes one auxiliary field of a header
type FieldDescriptor struct {
	Name       string
	Type       FieldType
	EnumLabels []string
	Policy     FieldPolicy
	Default    Value
}

// Field describes an optional auxiliary field of type t
func Field(name string, t FieldType) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t}
}

// EnumField describes an optional enum field with the given labels
func EnumField(name string, labels ...string) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: TypeEnum, EnumLabels: labels}
}

// Required returns a copy of d that records must always set
func (d FieldDescriptor) Required() FieldDescriptor {
	d.Policy = PolicyRequired
	d.Default = Value{}
	return d
}

// WithDefault returns a copy of d that fills v when a record omits it
func (d FieldDescriptor) WithDefault(v Value) FieldDescriptor {
	d.Policy = PolicyDefault
	d.Default = v
	return d
}

func (d FieldDescriptor) clone() FieldDescriptor {
	if d.EnumLabels != nil {
		d.EnumLabels = append([]string(nil), d.EnumLabels...)
	}
	return d
}

func (d FieldDescriptor) validate() error {
	if d.Name == "" || strings.ContainsAny(d.Name, "\t\n\r ,.{}") {
		return wrapf(ErrInvalidField, "name %q", d.Name)
	}
	for _, core := range codec.CoreColumns {
		if d.Name == core {
			return wrapf(ErrInvalidField, "%q is a core record column", d.Name)
		}
	}
	if !d.Type.valid() {
		return wrapf(ErrInvalidField, "field %s has invalid type %s", d.Name, d.Type)
	}

	if d.Type.IsEnum() {
		if len(d.EnumLabels) == 0 {
			return wrapf(ErrEmptyEnumLabels, "field %s", d.Name)
		}
		if len(d.EnumLabels) > maxEnumLabels {
			return wrapf(ErrTooManyEnumLabels, "field %s has %d", d.Name, len(d.EnumLabels))
		}
		seen := make(map[string]bool, len(d.EnumLabels))
		for _, l := range d.EnumLabels {
			if l == "" || strings.ContainsAny(l, "\t\n\r,{}") || seen[l] {
				return wrapf(ErrInvalidField, "field %s has invalid enum label %q", d.Name, l)
			}
			seen[l] = true
		}
	} else if len(d.EnumLabels) > 0 {
		return wrapf(ErrInvalidField, "field %s of type %s declares enum labels", d.Name, d.Type)
	}

	switch d.Policy {
	case PolicyOptional, PolicyRequired:
	case PolicyDefault:
		if _, err := checkValue(d, d.Default); err != nil {
			return wrapf(ErrInvalidField, "field %s default: %v", d.Name, err)
		}
	default:
		return wrapf(ErrInvalidField, "field %s has unknown policy %d", d.Name, d.Policy)
	}
	return nil
}
