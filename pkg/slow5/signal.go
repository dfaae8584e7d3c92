package slow5

import (
	"math"
)

// ToPicoamps converts a raw ADC sample to picoamperes
func ToPicoamps(raw int16, digitisation, offset, rng float64) float64 {
	return ((float64(raw) + offset) * rng) / digitisation
}

// ToRaw converts picoamperes back to the nearest raw sample, clamped to
// the int16 range.
func ToRaw(pa, digitisation, offset, rng float64) int16 {
	v := math.Round(pa*digitisation/rng - offset)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// RawSignalIter walks the raw samples of a record in order. It shares the
// record's immutable signal and allocates nothing.
type RawSignalIter struct {
	samples []int16
	pos     int
}

// Next advances to the next sample
func (it *RawSignalIter) Next() bool {
	if it.pos >= len(it.samples) {
		return false
	}
	it.pos++
	return true
}

// Value returns the current sample
func (it *RawSignalIter) Value() int16 {
	return it.samples[it.pos-1]
}

// Len returns the total number of samples
func (it *RawSignalIter) Len() int {
	return len(it.samples)
}

// Reset rewinds to before the first sample
func (it *RawSignalIter) Reset() {
	it.pos = 0
}

// PicoampsIter walks a record's samples converted to picoamperes
type PicoampsIter struct {
	RawSignalIter
	digitisation, offset, rng float64
}

// Value returns the current sample in picoamperes
func (it *PicoampsIter) Value() float64 {
	return ToPicoamps(it.RawSignalIter.Value(), it.digitisation, it.offset, it.rng)
}

// Raw returns the current raw sample
func (it *PicoampsIter) Raw() int16 {
	return it.RawSignalIter.Value()
}
