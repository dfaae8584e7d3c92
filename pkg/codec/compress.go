package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// RecordCompression identifies the block codec applied to each record body
type RecordCompression uint8

const (
	RecordNone RecordCompression = iota
	RecordZlib
	RecordZstd
	RecordSnappy
)

var recordCompressionNames = []string{"none", "zlib", "zstd", "snappy"}

func (c RecordCompression) String() string {
	if c.Valid() {
		return recordCompressionNames[c]
	}
	return fmt.Sprintf("record-compression(%d)", uint8(c))
}

// Valid reports whether c is a known record codec
func (c RecordCompression) Valid() bool {
	return int(c) < len(recordCompressionNames)
}

// ParseRecordCompression maps a codec name to its identifier
func ParseRecordCompression(name string) (RecordCompression, error) {
	for i, n := range recordCompressionNames {
		if n == name {
			return RecordCompression(i), nil
		}
	}
	return RecordNone, fmt.Errorf("unknown record compression %q", name)
}

// ErrCompress wraps failures reported by a record codec while compressing
var ErrCompress = errors.New("record compression failed")

var (
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderErr  error
)

// sharedZstdDecoder returns a process-wide decoder. DecodeAll is safe for
// concurrent use.
func sharedZstdDecoder() (*zstd.Decoder, error) {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, zstdDecoderErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdDecoder, zstdDecoderErr
}

// Compressor applies one record codec, reusing its encoder state and output
// buffer across calls. It is not safe for concurrent use.
type Compressor struct {
	kind RecordCompression
	out  []byte
	zbuf bytes.Buffer
	zw   *zlib.Writer
	ze   *zstd.Encoder
}

// NewCompressor creates a compressor for the given codec
func NewCompressor(kind RecordCompression) (*Compressor, error) {
	c := &Compressor{kind: kind}
	switch kind {
	case RecordNone, RecordSnappy:
	case RecordZlib:
		zw, err := zlib.NewWriterLevel(&c.zbuf, zlib.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("failed to create zlib writer: %w", err)
		}
		c.zw = zw
	case RecordZstd:
		ze, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		c.ze = ze
	default:
		return nil, fmt.Errorf("unknown record compression %d", kind)
	}
	return c, nil
}

// Compress encodes src. The result is valid until the next call.
func (c *Compressor) Compress(src []byte) ([]byte, error) {
	switch c.kind {
	case RecordNone:
		return src, nil
	case RecordZlib:
		c.zbuf.Reset()
		c.zw.Reset(&c.zbuf)
		if _, err := c.zw.Write(src); err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrCompress, err)
		}
		if err := c.zw.Close(); err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrCompress, err)
		}
		return c.zbuf.Bytes(), nil
	case RecordZstd:
		c.out = c.ze.EncodeAll(src, c.out[:0])
		return c.out, nil
	case RecordSnappy:
		c.out = snappy.Encode(c.out[:cap(c.out)], src)
		return c.out, nil
	default:
		return nil, fmt.Errorf("%w: unknown record compression %d", ErrCompress, c.kind)
	}
}

// Close releases encoder resources
func (c *Compressor) Close() error {
	if c.ze != nil {
		err := c.ze.Close()
		c.ze = nil
		return err
	}
	return nil
}

// Decompressor reverses a record codec into a reusable buffer. It is not
// safe for concurrent use.
type Decompressor struct {
	kind RecordCompression
	out  []byte
	zbuf bytes.Buffer
}

// NewDecompressor creates a decompressor for the given codec
func NewDecompressor(kind RecordCompression) (*Decompressor, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record compression %d", kind)
	}
	if kind == RecordZstd {
		if _, err := sharedZstdDecoder(); err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}
	return &Decompressor{kind: kind}, nil
}

// Decompress decodes src. The result is valid until the next call.
func (d *Decompressor) Decompress(src []byte) ([]byte, error) {
	switch d.kind {
	case RecordNone:
		return src, nil
	case RecordZlib:
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		defer zr.Close()
		d.zbuf.Reset()
		if _, err := io.Copy(&d.zbuf, zr); err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		return d.zbuf.Bytes(), nil
	case RecordZstd:
		dec, err := sharedZstdDecoder()
		if err != nil {
			return nil, err
		}
		out, err := dec.DecodeAll(src, d.out[:0])
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		d.out = out
		return out, nil
	case RecordSnappy:
		out, err := snappy.Decode(d.out[:cap(d.out)], src)
		if err != nil {
			return nil, fmt.Errorf("snappy decompress: %w", err)
		}
		d.out = out
		return out, nil
	default:
		return nil, fmt.Errorf("unknown record compression %d", d.kind)
	}
}
