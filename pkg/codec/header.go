package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Binary preamble layout
// Format: [Magic(6)][Version(3)][RecordCompression(1)][NumReadGroups(4)][SignalCompression(1)][pad to 64][TextLen(4)][Text]
const (
	PreambleSize = 64
	preambleUsed = 15
)

var (
	// BinaryMagic opens every BLOW5 file
	BinaryMagic = []byte("BLOW5\x01")
	// EOFMarker terminates every complete BLOW5 file
	EOFMarker = []byte("5WOLB")
)

// Version is the only format version this package writes
var Version = [3]uint8{0, 2, 0}

// Core column names, in file order
var CoreColumns = []string{
	"read_id", "read_group", "digitisation", "offset",
	"range", "sampling_rate", "len_raw_signal", "raw_signal",
}

var coreTypes = []string{
	"char*", "uint32_t", "double", "double",
	"double", "double", "uint64_t", "int16_t*",
}

const (
	versionKey    = "slow5_version"
	readGroupsKey = "num_read_groups"
	unsetValue    = "."
)

// Header is the decoded file header: format metadata, per read group
// attributes and the auxiliary column schema.
type Header struct {
	Version           [3]uint8
	NumReadGroups     uint32
	RecordCompression RecordCompression
	SignalCompression SignalCompression
	Aux               []AuxSpec

	attrKeys []string
	attrs    map[string][]string
}

// NewHeader creates an empty header with the given number of read groups
func NewHeader(readGroups uint32) *Header {
	return &Header{
		Version:       Version,
		NumReadGroups: readGroups,
		attrs:         make(map[string][]string),
	}
}

// SetAttribute stores value for key in the given read group. An empty value
// marks the attribute as unset for that group.
func (h *Header) SetAttribute(key, value string, group uint32) error {
	if key == "" || strings.ContainsAny(key, "\t\n\r ") {
		return fmt.Errorf("invalid attribute key %q", key)
	}
	if strings.ContainsAny(value, "\t\n\r") || value == unsetValue {
		return fmt.Errorf("invalid value for attribute %q", key)
	}
	if group >= h.NumReadGroups {
		return fmt.Errorf("read group %d out of range for attribute %q", group, key)
	}
	if h.attrs == nil {
		h.attrs = make(map[string][]string)
	}
	values, ok := h.attrs[key]
	if !ok {
		h.attrKeys = append(h.attrKeys, key)
	}
	if len(values) < int(h.NumReadGroups) {
		grown := make([]string, h.NumReadGroups)
		copy(grown, values)
		values = grown
	}
	values[group] = value
	h.attrs[key] = values
	return nil
}

// Attribute returns the value of key in the given read group
func (h *Header) Attribute(key string, group uint32) (string, bool) {
	values, ok := h.attrs[key]
	if !ok || group >= uint32(len(values)) {
		return "", false
	}
	if values[group] == "" {
		return "", false
	}
	return values[group], true
}

// AttributeKeys returns attribute keys in declaration order
func (h *Header) AttributeKeys() []string {
	keys := make([]string, len(h.attrKeys))
	copy(keys, h.attrKeys)
	return keys
}

// MarshalText renders the SLOW5 text header, terminated by the column line
func (h *Header) MarshalText() ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "#%s\t%d.%d.%d\n", versionKey, h.Version[0], h.Version[1], h.Version[2])
	fmt.Fprintf(&buf, "#%s\t%d\n", readGroupsKey, h.NumReadGroups)

	for _, key := range h.attrKeys {
		buf.WriteByte('@')
		buf.WriteString(key)
		values := h.attrs[key]
		for g := uint32(0); g < h.NumReadGroups; g++ {
			buf.WriteByte('\t')
			if int(g) < len(values) && values[g] != "" {
				buf.WriteString(values[g])
			} else {
				buf.WriteString(unsetValue)
			}
		}
		buf.WriteByte('\n')
	}

	types := append([]string(nil), coreTypes...)
	columns := append([]string(nil), CoreColumns...)
	for _, spec := range h.Aux {
		types = append(types, spec.TypeName())
		columns = append(columns, spec.Name)
	}
	buf.WriteByte('#')
	buf.WriteString(strings.Join(types, "\t"))
	buf.WriteByte('\n')
	buf.WriteByte('#')
	buf.WriteString(strings.Join(columns, "\t"))
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// ParseText reads a SLOW5 text header from r, stopping after the column
// line. It returns the header and the number of bytes consumed.
func ParseText(r *bufio.Reader) (*Header, int64, error) {
	var (
		h        = &Header{attrs: make(map[string][]string)}
		consumed int64
		types    []string
		lineNo   int
	)

	for {
		line, err := r.ReadString('\n')
		consumed += int64(len(line))
		if err != nil {
			if err == io.EOF {
				return nil, consumed, fmt.Errorf("header truncated after %d lines", lineNo)
			}
			return nil, consumed, fmt.Errorf("failed to read header: %w", err)
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		fields := strings.Split(line, "\t")

		switch {
		case lineNo == 1:
			if fields[0] != "#"+versionKey || len(fields) != 2 {
				return nil, consumed, fmt.Errorf("missing %s line", versionKey)
			}
			v, err := parseVersion(fields[1])
			if err != nil {
				return nil, consumed, err
			}
			h.Version = v
		case fields[0] == "#"+readGroupsKey:
			if len(fields) != 2 {
				return nil, consumed, fmt.Errorf("malformed %s line", readGroupsKey)
			}
			n, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil || n == 0 {
				return nil, consumed, fmt.Errorf("invalid %s %q", readGroupsKey, fields[1])
			}
			h.NumReadGroups = uint32(n)
		case strings.HasPrefix(line, "@"):
			key := strings.TrimPrefix(fields[0], "@")
			if len(fields)-1 != int(h.NumReadGroups) {
				return nil, consumed, fmt.Errorf("attribute %q has %d values, want %d", key, len(fields)-1, h.NumReadGroups)
			}
			if _, dup := h.attrs[key]; dup {
				return nil, consumed, fmt.Errorf("duplicate attribute %q", key)
			}
			values := make([]string, h.NumReadGroups)
			for i, v := range fields[1:] {
				if v != unsetValue {
					values[i] = v
				}
			}
			h.attrKeys = append(h.attrKeys, key)
			h.attrs[key] = values
		case fields[0] == "#"+CoreColumns[0]:
			if types == nil {
				return nil, consumed, fmt.Errorf("column line without type line")
			}
			if err := h.parseSchema(types, fields); err != nil {
				return nil, consumed, err
			}
			if h.NumReadGroups == 0 {
				return nil, consumed, fmt.Errorf("missing %s line", readGroupsKey)
			}
			return h, consumed, nil
		case strings.HasPrefix(line, "#"):
			types = fields
			types[0] = strings.TrimPrefix(types[0], "#")
		default:
			return nil, consumed, fmt.Errorf("unexpected header line %d", lineNo)
		}
	}
}

func (h *Header) parseSchema(types, columns []string) error {
	columns = append([]string(nil), columns...)
	columns[0] = strings.TrimPrefix(columns[0], "#")

	if len(types) != len(columns) {
		return fmt.Errorf("type line has %d columns, column line has %d", len(types), len(columns))
	}
	if len(columns) < len(CoreColumns) {
		return fmt.Errorf("missing core columns")
	}
	for i, name := range CoreColumns {
		if columns[i] != name || types[i] != coreTypes[i] {
			return fmt.Errorf("unexpected core column %q of type %q", columns[i], types[i])
		}
	}

	seen := make(map[string]bool)
	for i := len(CoreColumns); i < len(columns); i++ {
		name := columns[i]
		if seen[name] {
			return fmt.Errorf("duplicate aux column %q", name)
		}
		seen[name] = true
		t, labels, err := ParseTypeName(types[i])
		if err != nil {
			return fmt.Errorf("aux column %q: %w", name, err)
		}
		h.Aux = append(h.Aux, AuxSpec{Name: name, Type: t, EnumLabels: labels})
	}
	return nil
}

func parseVersion(s string) ([3]uint8, error) {
	var v [3]uint8
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return v, fmt.Errorf("invalid version %q", s)
		}
		v[i] = uint8(n)
	}
	return v, nil
}

// MarshalBinary renders the BLOW5 preamble followed by the text header
func (h *Header) MarshalBinary() ([]byte, error) {
	text, err := h.MarshalText()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, PreambleSize+4+len(text))
	copy(buf[0:], BinaryMagic)
	copy(buf[6:9], h.Version[:])
	buf[9] = byte(h.RecordCompression)
	binary.LittleEndian.PutUint32(buf[10:], h.NumReadGroups)
	buf[14] = byte(h.SignalCompression)
	binary.LittleEndian.PutUint32(buf[PreambleSize:], uint32(len(text)))
	copy(buf[PreambleSize+4:], text)

	return buf, nil
}

// ParseBinary reads a BLOW5 preamble and embedded text header from r.
// It returns the header and the number of bytes consumed.
func ParseBinary(r io.Reader) (*Header, int64, error) {
	pre := make([]byte, PreambleSize+4)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, 0, fmt.Errorf("failed to read preamble: %w", err)
	}
	if !bytes.Equal(pre[:len(BinaryMagic)], BinaryMagic) {
		return nil, 0, fmt.Errorf("bad magic %q", pre[:len(BinaryMagic)])
	}
	for _, b := range pre[preambleUsed:PreambleSize] {
		if b != 0 {
			return nil, 0, fmt.Errorf("non-zero preamble padding")
		}
	}

	recComp := RecordCompression(pre[9])
	if !recComp.Valid() {
		return nil, 0, fmt.Errorf("unknown record compression %d", pre[9])
	}
	sigComp := SignalCompression(pre[14])
	if !sigComp.Valid() {
		return nil, 0, fmt.Errorf("unknown signal compression %d", pre[14])
	}

	textLen := binary.LittleEndian.Uint32(pre[PreambleSize:])
	text := make([]byte, textLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, int64(len(pre)), fmt.Errorf("failed to read header text: %w", err)
	}

	h, n, err := ParseText(bufio.NewReader(bytes.NewReader(text)))
	if err != nil {
		return nil, int64(len(pre)) + n, err
	}
	if n != int64(textLen) {
		return nil, int64(len(pre)) + n, fmt.Errorf("trailing bytes after header text")
	}

	var version [3]uint8
	copy(version[:], pre[6:9])
	if version != h.Version {
		return nil, int64(len(pre)) + n, fmt.Errorf("preamble version %v disagrees with header text %v", version, h.Version)
	}
	if rg := binary.LittleEndian.Uint32(pre[10:]); rg != h.NumReadGroups {
		return nil, int64(len(pre)) + n, fmt.Errorf("preamble declares %d read groups, header text %d", rg, h.NumReadGroups)
	}
	h.RecordCompression = recComp
	h.SignalCompression = sigComp

	return h, int64(len(pre)) + n, nil
}
