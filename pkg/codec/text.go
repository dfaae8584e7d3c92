package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TextCodec encodes and decodes SLOW5 record lines for one schema.
// It is not safe for concurrent use.
type TextCodec struct {
	schema []AuxSpec

	line    []byte
	samples []int16
	aux     [][]byte
	auxBuf  []byte
	cols    [][]byte
}

// NewTextCodec creates a codec for the header's schema
func NewTextCodec(h *Header) *TextCodec {
	return &TextCodec{schema: h.Aux}
}

// Encode renders rec as one newline-terminated line. The returned slice is
// valid until the next call.
func (c *TextCodec) Encode(rec *RawRecord) ([]byte, error) {
	if err := checkRecord(rec, c.schema); err != nil {
		return nil, err
	}
	if bytes.ContainsAny(rec.ReadID, "\t\n\r") || len(rec.ReadID) == 0 {
		return nil, fmt.Errorf("read id %q cannot be written as text", rec.ReadID)
	}

	b := c.line[:0]
	b = append(b, rec.ReadID...)
	b = append(b, '\t')
	b = strconv.AppendUint(b, uint64(rec.ReadGroup), 10)
	for _, f := range []float64{rec.Digitisation, rec.Offset, rec.Range, rec.SamplingRate} {
		b = append(b, '\t')
		b = strconv.AppendFloat(b, f, 'g', -1, 64)
	}
	b = append(b, '\t')
	b = strconv.AppendUint(b, rec.LenRawSignal, 10)
	b = append(b, '\t')
	for i, s := range rec.RawSignal {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(s), 10)
	}

	for i, spec := range c.schema {
		b = append(b, '\t')
		v := rec.Aux[i]
		if v == nil {
			b = append(b, unsetValue...)
			continue
		}
		var err error
		b, err = appendTextValue(b, spec, v)
		if err != nil {
			return nil, fmt.Errorf("aux %q: %w", spec.Name, err)
		}
	}
	b = append(b, '\n')
	c.line = b

	return b, nil
}

func appendTextValue(b []byte, spec AuxSpec, v []byte) ([]byte, error) {
	if spec.Type.Kind == AuxString {
		if bytes.ContainsAny(v, "\t\n\r") || string(v) == unsetValue {
			return nil, fmt.Errorf("string %q cannot be written as text", v)
		}
		return append(b, v...), nil
	}
	if spec.Type.Kind == AuxChar {
		if v[0] == '\t' || v[0] == '\n' || v[0] == '\r' || v[0] == 0 || v[0] == '.' {
			return nil, fmt.Errorf("char %q cannot be written as text", v[0])
		}
		return append(b, v[0]), nil
	}

	w := spec.Type.Kind.Width()
	for i := 0; i*w < len(v); i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendScalar(b, spec.Type.Kind, v[i*w:(i+1)*w])
	}
	return b, nil
}

func appendScalar(b []byte, kind AuxKind, v []byte) []byte {
	switch kind {
	case AuxInt8:
		return strconv.AppendInt(b, int64(int8(v[0])), 10)
	case AuxInt16:
		return strconv.AppendInt(b, int64(int16(binary.LittleEndian.Uint16(v))), 10)
	case AuxInt32:
		return strconv.AppendInt(b, int64(int32(binary.LittleEndian.Uint32(v))), 10)
	case AuxInt64:
		return strconv.AppendInt(b, int64(binary.LittleEndian.Uint64(v)), 10)
	case AuxUint8, AuxEnum:
		return strconv.AppendUint(b, uint64(v[0]), 10)
	case AuxUint16:
		return strconv.AppendUint(b, uint64(binary.LittleEndian.Uint16(v)), 10)
	case AuxUint32:
		return strconv.AppendUint(b, uint64(binary.LittleEndian.Uint32(v)), 10)
	case AuxUint64:
		return strconv.AppendUint(b, binary.LittleEndian.Uint64(v), 10)
	case AuxFloat:
		return strconv.AppendFloat(b, float64(math.Float32frombits(binary.LittleEndian.Uint32(v))), 'g', -1, 32)
	case AuxDouble:
		return strconv.AppendFloat(b, math.Float64frombits(binary.LittleEndian.Uint64(v)), 'g', -1, 64)
	default:
		return b
	}
}

// Decode parses one record line (without its newline) into dst. dst aliases
// line and codec-owned memory until the next Decode call.
func (c *TextCodec) Decode(line []byte, dst *RawRecord) error {
	line = bytes.TrimRight(line, "\r\n")
	c.cols = splitInto(c.cols[:0], line, '\t')
	want := len(CoreColumns) + len(c.schema)
	if len(c.cols) != want {
		return fmt.Errorf("record has %d columns, want %d", len(c.cols), want)
	}

	dst.ReadID = c.cols[0]
	rg, err := strconv.ParseUint(string(c.cols[1]), 10, 32)
	if err != nil {
		return fmt.Errorf("read_group: %w", err)
	}
	dst.ReadGroup = uint32(rg)

	floats := []*float64{&dst.Digitisation, &dst.Offset, &dst.Range, &dst.SamplingRate}
	for i, f := range floats {
		*f, err = strconv.ParseFloat(string(c.cols[2+i]), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", CoreColumns[2+i], err)
		}
	}
	dst.LenRawSignal, err = strconv.ParseUint(string(c.cols[6]), 10, 64)
	if err != nil {
		return fmt.Errorf("len_raw_signal: %w", err)
	}

	c.samples = c.samples[:0]
	if len(c.cols[7]) > 0 {
		for _, tok := range bytes.Split(c.cols[7], []byte{','}) {
			s, err := strconv.ParseInt(string(tok), 10, 16)
			if err != nil {
				return fmt.Errorf("raw_signal: %w", err)
			}
			c.samples = append(c.samples, int16(s))
		}
	}
	dst.RawSignal = c.samples

	// values are staged in one buffer and sliced once it stops growing
	if c.auxBuf == nil {
		c.auxBuf = make([]byte, 0, 64)
	}
	c.auxBuf = c.auxBuf[:0]
	offsets := make([][2]int, len(c.schema))
	present := make([]bool, len(c.schema))
	for i, spec := range c.schema {
		col := c.cols[len(CoreColumns)+i]
		if string(col) == unsetValue {
			continue
		}
		start := len(c.auxBuf)
		c.auxBuf, err = parseTextValue(c.auxBuf, spec, col)
		if err != nil {
			return fmt.Errorf("aux %q: %w", spec.Name, err)
		}
		offsets[i] = [2]int{start, len(c.auxBuf)}
		present[i] = true
	}
	if cap(c.aux) < len(c.schema) {
		c.aux = make([][]byte, len(c.schema))
	}
	c.aux = c.aux[:len(c.schema)]
	for i := range c.schema {
		if !present[i] {
			c.aux[i] = nil
			continue
		}
		c.aux[i] = c.auxBuf[offsets[i][0]:offsets[i][1]:offsets[i][1]]
	}
	dst.Aux = c.aux

	return checkRecord(dst, c.schema)
}

func parseTextValue(b []byte, spec AuxSpec, col []byte) ([]byte, error) {
	switch spec.Type.Kind {
	case AuxString:
		return append(b, col...), nil
	case AuxChar:
		if len(col) != 1 {
			return nil, fmt.Errorf("char value %q is not one byte", col)
		}
		return append(b, col[0]), nil
	}

	if !spec.Type.Array {
		return parseScalar(b, spec.Type.Kind, string(col))
	}
	if len(col) == 0 {
		return b, nil
	}
	var err error
	for _, tok := range strings.Split(string(col), ",") {
		b, err = parseScalar(b, spec.Type.Kind, tok)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func parseScalar(b []byte, kind AuxKind, tok string) ([]byte, error) {
	switch kind {
	case AuxInt8, AuxInt16, AuxInt32, AuxInt64:
		bits := kind.Width() * 8
		n, err := strconv.ParseInt(tok, 10, bits)
		if err != nil {
			return nil, err
		}
		return appendInt(b, uint64(n), kind.Width()), nil
	case AuxUint8, AuxUint16, AuxUint32, AuxUint64, AuxEnum:
		bits := kind.Width() * 8
		n, err := strconv.ParseUint(tok, 10, bits)
		if err != nil {
			return nil, err
		}
		return appendInt(b, n, kind.Width()), nil
	case AuxFloat:
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(f))), nil
	case AuxDouble:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(f)), nil
	default:
		return nil, fmt.Errorf("unsupported aux kind %s", kind)
	}
}

func appendInt(b []byte, v uint64, width int) []byte {
	switch width {
	case 1:
		return append(b, byte(v))
	case 2:
		return binary.LittleEndian.AppendUint16(b, uint16(v))
	case 4:
		return binary.LittleEndian.AppendUint32(b, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(b, v)
	}
}

func splitInto(dst [][]byte, line []byte, sep byte) [][]byte {
	for {
		i := bytes.IndexByte(line, sep)
		if i < 0 {
			return append(dst, line)
		}
		dst = append(dst, line[:i])
		line = line[i+1:]
	}
}
