package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// RawRecord is one record as the engine sees it. Aux holds one entry per
// schema column in little-endian element encoding; a nil entry is absent.
// Enum values are stored as a single index byte.
//
// Records produced by a decoder alias the decoder's scratch memory and are
// only valid until its next Decode call.
type RawRecord struct {
	ReadID       []byte
	ReadGroup    uint32
	Digitisation float64
	Offset       float64
	Range        float64
	SamplingRate float64
	LenRawSignal uint64
	RawSignal    []int16
	Aux          [][]byte
}

// Block framing
// Format: [Size(8)][CRC32(4)][Payload]
const BlockHeaderSize = 12

// ErrChecksum is returned when a block's payload does not match its CRC
var ErrChecksum = errors.New("block checksum mismatch")

// AppendBlock frames payload and appends it to dst
func AppendBlock(dst, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(payload)))
	dst = binary.LittleEndian.AppendUint32(dst, crc32.ChecksumIEEE(payload))
	return append(dst, payload...)
}

// ParseBlockHeader splits a block header into payload size and checksum
func ParseBlockHeader(hdr []byte) (size uint64, sum uint32) {
	return binary.LittleEndian.Uint64(hdr[0:8]), binary.LittleEndian.Uint32(hdr[8:12])
}

// VerifyBlock checks payload against the checksum from its header
func VerifyBlock(payload []byte, sum uint32) error {
	if got := crc32.ChecksumIEEE(payload); got != sum {
		return fmt.Errorf("%w: %08x != %08x", ErrChecksum, got, sum)
	}
	return nil
}

// BinaryCodec encodes and decodes BLOW5 record bodies for one schema.
// It is not safe for concurrent use.
type BinaryCodec struct {
	schema []AuxSpec
	signal SignalCompression
	comp   *Compressor
	decomp *Decompressor

	body    []byte
	samples []int16
	aux     [][]byte
}

// NewBinaryCodec creates a codec for the header's schema and compressions
func NewBinaryCodec(h *Header) (*BinaryCodec, error) {
	comp, err := NewCompressor(h.RecordCompression)
	if err != nil {
		return nil, err
	}
	decomp, err := NewDecompressor(h.RecordCompression)
	if err != nil {
		return nil, err
	}
	if !h.SignalCompression.Valid() {
		return nil, fmt.Errorf("unknown signal compression %d", h.SignalCompression)
	}
	return &BinaryCodec{
		schema: h.Aux,
		signal: h.SignalCompression,
		comp:   comp,
		decomp: decomp,
	}, nil
}

// Encode serializes and compresses rec. The returned payload is valid until
// the next call.
func (c *BinaryCodec) Encode(rec *RawRecord) ([]byte, error) {
	if err := checkRecord(rec, c.schema); err != nil {
		return nil, err
	}
	if len(rec.ReadID) > math.MaxUint16 {
		return nil, fmt.Errorf("read id too long: %d bytes", len(rec.ReadID))
	}

	b := c.body[:0]
	b = binary.LittleEndian.AppendUint16(b, uint16(len(rec.ReadID)))
	b = append(b, rec.ReadID...)
	b = binary.LittleEndian.AppendUint32(b, rec.ReadGroup)
	for _, f := range []float64{rec.Digitisation, rec.Offset, rec.Range, rec.SamplingRate} {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(f))
	}
	b = binary.LittleEndian.AppendUint64(b, rec.LenRawSignal)

	// reserve the signal length and patch it once the samples are written
	lenAt := len(b)
	b = binary.LittleEndian.AppendUint64(b, 0)
	b, err := AppendSignal(b, c.signal, rec.RawSignal)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint64(b[lenAt:], uint64(len(b)-lenAt-8))

	bitmapAt := len(b)
	b = append(b, make([]byte, (len(c.schema)+7)/8)...)
	for i, spec := range c.schema {
		v := rec.Aux[i]
		if v == nil {
			continue
		}
		b[bitmapAt+i/8] |= 1 << (i % 8)
		if spec.Type.Variable() {
			b = binary.LittleEndian.AppendUint64(b, uint64(len(v)))
		}
		b = append(b, v...)
	}
	c.body = b

	payload, err := c.comp.Compress(b)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Decode decompresses and parses payload into dst. dst aliases codec-owned
// memory until the next Decode call.
func (c *BinaryCodec) Decode(payload []byte, dst *RawRecord) error {
	body, err := c.decomp.Decompress(payload)
	if err != nil {
		return err
	}

	r := byteReader{buf: body}
	idLen := r.uint16()
	dst.ReadID = r.bytes(uint64(idLen))
	dst.ReadGroup = r.uint32()
	dst.Digitisation = r.float64()
	dst.Offset = r.float64()
	dst.Range = r.float64()
	dst.SamplingRate = r.float64()
	dst.LenRawSignal = r.uint64()
	sigBytes := r.bytes(r.uint64())
	if r.err != nil {
		return fmt.Errorf("record body: %w", r.err)
	}

	c.samples, err = DecodeSignal(c.samples, c.signal, sigBytes, dst.LenRawSignal)
	if err != nil {
		return err
	}
	dst.RawSignal = c.samples

	bitmap := r.bytes(uint64((len(c.schema) + 7) / 8))
	if cap(c.aux) < len(c.schema) {
		c.aux = make([][]byte, len(c.schema))
	}
	c.aux = c.aux[:len(c.schema)]
	for i, spec := range c.schema {
		if r.err != nil || bitmap[i/8]&(1<<(i%8)) == 0 {
			c.aux[i] = nil
			continue
		}
		n := uint64(spec.Type.Kind.Width())
		if spec.Type.Variable() {
			n = r.uint64()
		}
		c.aux[i] = r.bytes(n)
	}
	if r.err != nil {
		return fmt.Errorf("record body: %w", r.err)
	}
	if r.pos != len(body) {
		return fmt.Errorf("record body: %d trailing bytes", len(body)-r.pos)
	}
	dst.Aux = c.aux

	return checkRecord(dst, c.schema)
}

// Close releases compressor state
func (c *BinaryCodec) Close() error {
	return c.comp.Close()
}

// checkRecord validates the structural invariants shared by both codecs
func checkRecord(rec *RawRecord, schema []AuxSpec) error {
	if uint64(len(rec.RawSignal)) != rec.LenRawSignal {
		return fmt.Errorf("record declares %d samples, has %d", rec.LenRawSignal, len(rec.RawSignal))
	}
	if len(rec.Aux) != len(schema) {
		return fmt.Errorf("record has %d aux values, schema has %d", len(rec.Aux), len(schema))
	}
	for i, spec := range schema {
		v := rec.Aux[i]
		if v == nil {
			continue
		}
		w := spec.Type.Kind.Width()
		switch {
		case spec.Type.Kind == AuxString && !spec.Type.Array:
		case spec.Type.Array:
			if w == 0 || len(v)%w != 0 {
				return fmt.Errorf("aux %q: %d bytes is not a whole number of elements", spec.Name, len(v))
			}
		default:
			if len(v) != w {
				return fmt.Errorf("aux %q: %d bytes, want %d", spec.Name, len(v), w)
			}
		}
	}
	return nil
}

// byteReader is a bounds-checked little-endian cursor. The first failure
// sticks in err and later reads return zero values.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) bytes(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)-r.pos) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	out := r.buf[r.pos : r.pos+int(n) : r.pos+int(n)]
	r.pos += int(n)
	return out
}

func (r *byteReader) uint16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *byteReader) uint32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *byteReader) uint64() uint64 {
	if b := r.bytes(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *byteReader) float64() float64 {
	return math.Float64frombits(r.uint64())
}
