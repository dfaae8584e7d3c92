package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the on-disk container flavour
type Format uint8

const (
	FormatUnknown Format = iota
	FormatASCII          // .slow5
	FormatBinary         // .blow5
)

// File suffixes for the two container flavours
const (
	SuffixASCII  = ".slow5"
	SuffixBinary = ".blow5"
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "slow5"
	case FormatBinary:
		return "blow5"
	default:
		return "unknown"
	}
}

// FormatFromPath maps a file path to a container format using its extension.
// The second return value is false when the extension is not recognised.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case SuffixASCII:
		return FormatASCII, true
	case SuffixBinary:
		return FormatBinary, true
	default:
		return FormatUnknown, false
	}
}

// AuxKind is the element kind of an auxiliary field
type AuxKind uint8

const (
	AuxInvalid AuxKind = iota
	AuxInt8
	AuxInt16
	AuxInt32
	AuxInt64
	AuxUint8
	AuxUint16
	AuxUint32
	AuxUint64
	AuxFloat
	AuxDouble
	AuxChar
	AuxString
	AuxEnum
)

var auxKindNames = map[AuxKind]string{
	AuxInt8:   "int8_t",
	AuxInt16:  "int16_t",
	AuxInt32:  "int32_t",
	AuxInt64:  "int64_t",
	AuxUint8:  "uint8_t",
	AuxUint16: "uint16_t",
	AuxUint32: "uint32_t",
	AuxUint64: "uint64_t",
	AuxFloat:  "float",
	AuxDouble: "double",
	AuxChar:   "char",
	AuxString: "char*",
	AuxEnum:   "enum",
}

// Width returns the encoded size in bytes of a single element of the kind,
// or 0 for variable-width kinds.
func (k AuxKind) Width() int {
	switch k {
	case AuxInt8, AuxUint8, AuxChar, AuxEnum:
		return 1
	case AuxInt16, AuxUint16:
		return 2
	case AuxInt32, AuxUint32, AuxFloat:
		return 4
	case AuxInt64, AuxUint64, AuxDouble:
		return 8
	default:
		return 0
	}
}

func (k AuxKind) String() string {
	if name, ok := auxKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("aux(%d)", uint8(k))
}

// AuxType is the declared type of an auxiliary field
type AuxType struct {
	Kind  AuxKind
	Array bool
}

// Variable reports whether encoded values of this type carry a length prefix
func (t AuxType) Variable() bool {
	return t.Array || t.Kind == AuxString
}

// Name returns the SLOW5 type name used in the header type line.
// Enum labels are appended by the caller.
func (t AuxType) Name() string {
	name := t.Kind.String()
	if t.Array {
		name += "*"
	}
	return name
}

// AuxSpec describes one auxiliary column of a file
type AuxSpec struct {
	Name       string
	Type       AuxType
	EnumLabels []string
}

// TypeName renders the full SLOW5 type token, including enum labels
func (s AuxSpec) TypeName() string {
	if s.Type.Kind != AuxEnum {
		return s.Type.Name()
	}
	return s.Type.Name() + "{" + strings.Join(s.EnumLabels, ",") + "}"
}

// ParseTypeName parses a SLOW5 type token such as "uint32_t", "float*" or
// "enum{A,B}" into its type and enum labels.
func ParseTypeName(token string) (AuxType, []string, error) {
	if strings.HasPrefix(token, "enum") {
		rest := strings.TrimPrefix(token, "enum")
		t := AuxType{Kind: AuxEnum}
		if strings.HasPrefix(rest, "*") {
			t.Array = true
			rest = rest[1:]
		}
		if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, "}") {
			return AuxType{}, nil, fmt.Errorf("malformed enum type %q", token)
		}
		body := rest[1 : len(rest)-1]
		if body == "" {
			return t, nil, nil
		}
		return t, strings.Split(body, ","), nil
	}

	if token == "char*" {
		return AuxType{Kind: AuxString}, nil, nil
	}

	array := strings.HasSuffix(token, "*")
	base := strings.TrimSuffix(token, "*")
	for kind, name := range auxKindNames {
		if name == base && kind != AuxString && kind != AuxEnum {
			return AuxType{Kind: kind, Array: array}, nil, nil
		}
	}
	return AuxType{}, nil, fmt.Errorf("unknown aux type %q", token)
}
