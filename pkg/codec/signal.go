package codec

import (
	"encoding/binary"
	"fmt"
)

// SignalCompression identifies the encoding of raw signal samples inside a
// binary record body.
type SignalCompression uint8

const (
	SignalNone SignalCompression = iota
	// SignalZigzagDelta stores zig-zag encoded first differences as uvarints
	SignalZigzagDelta
)

var signalCompressionNames = []string{"none", "zigzag-delta"}

func (c SignalCompression) String() string {
	if c.Valid() {
		return signalCompressionNames[c]
	}
	return fmt.Sprintf("signal-compression(%d)", uint8(c))
}

// Valid reports whether c is a known signal codec
func (c SignalCompression) Valid() bool {
	return int(c) < len(signalCompressionNames)
}

// ParseSignalCompression maps a codec name to its identifier
func ParseSignalCompression(name string) (SignalCompression, error) {
	for i, n := range signalCompressionNames {
		if n == name {
			return SignalCompression(i), nil
		}
	}
	return SignalNone, fmt.Errorf("unknown signal compression %q", name)
}

// AppendSignal appends the encoded samples to dst
func AppendSignal(dst []byte, kind SignalCompression, samples []int16) ([]byte, error) {
	switch kind {
	case SignalNone:
		for _, s := range samples {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
		}
		return dst, nil
	case SignalZigzagDelta:
		var prev int32
		for _, s := range samples {
			delta := int32(s) - prev
			prev = int32(s)
			dst = binary.AppendUvarint(dst, uint64(uint32((delta<<1)^(delta>>31))))
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("unknown signal compression %d", kind)
	}
}

// DecodeSignal decodes n samples from src into dst, growing it as needed
func DecodeSignal(dst []int16, kind SignalCompression, src []byte, n uint64) ([]int16, error) {
	// every encoding spends at least one byte per sample
	if n > uint64(len(src)) {
		return nil, fmt.Errorf("signal has %d bytes for %d samples", len(src), n)
	}
	if uint64(cap(dst)) < n {
		dst = make([]int16, n)
	}
	dst = dst[:n]

	switch kind {
	case SignalNone:
		if uint64(len(src)) != 2*n {
			return nil, fmt.Errorf("signal has %d bytes, want %d", len(src), 2*n)
		}
		for i := range dst {
			dst[i] = int16(binary.LittleEndian.Uint16(src[2*i:]))
		}
		return dst, nil
	case SignalZigzagDelta:
		var prev int32
		pos := 0
		for i := range dst {
			u, w := binary.Uvarint(src[pos:])
			if w <= 0 || u > 0xffffffff {
				return nil, fmt.Errorf("malformed signal delta at sample %d", i)
			}
			pos += w
			z := uint32(u)
			delta := int32(z>>1) ^ -int32(z&1)
			prev += delta
			if prev < -32768 || prev > 32767 {
				return nil, fmt.Errorf("signal sample %d out of range", i)
			}
			dst[i] = int16(prev)
		}
		if pos != len(src) {
			return nil, fmt.Errorf("%d trailing signal bytes", len(src)-pos)
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("unknown signal compression %d", kind)
	}
}
