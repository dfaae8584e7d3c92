package slow5

import (
	"fmt"
	"slices"
)

// Record is one read with its auxiliary values. A Record owns all of its
// memory and is immutable, so it may be shared between goroutines and
// outlives the Reader that produced it.
type Record struct {
	readID       string
	readGroup    uint32
	digitisation float64
	offset       float64
	rng          float64
	samplingRate float64
	signal       []int16
	aux          map[string]Value

	reg *Registry
}

func (r *Record) ReadID() string        { return r.readID }
func (r *Record) ReadGroup() uint32     { return r.readGroup }
func (r *Record) Digitisation() float64 { return r.digitisation }
func (r *Record) Offset() float64       { return r.offset }
func (r *Record) Range() float64        { return r.rng }
func (r *Record) SamplingRate() float64 { return r.samplingRate }
func (r *Record) Len() int              { return len(r.signal) }
func (r *Record) Registry() *Registry   { return r.reg }

// RawSignal returns a copy of the raw samples
func (r *Record) RawSignal() []int16 {
	return slices.Clone(r.signal)
}

// Picoamps returns the samples converted to picoamperes
func (r *Record) Picoamps() []float64 {
	out := make([]float64, len(r.signal))
	for i, s := range r.signal {
		out[i] = ToPicoamps(s, r.digitisation, r.offset, r.rng)
	}
	return out
}

// RawSignalIter returns a fresh iterator over the raw samples
func (r *Record) RawSignalIter() *RawSignalIter {
	return &RawSignalIter{samples: r.signal}
}

// PicoampsIter returns a fresh iterator over the converted samples
func (r *Record) PicoampsIter() *PicoampsIter {
	return &PicoampsIter{
		RawSignalIter: RawSignalIter{samples: r.signal},
		digitisation:  r.digitisation,
		offset:        r.offset,
		rng:           r.rng,
	}
}

// Aux returns the value of an auxiliary field. Enum values are resolved
// through the field's label table.
func (r *Record) Aux(name string) (Value, error) {
	d, ok := r.descriptor(name)
	if !ok {
		return Value{}, wrapf(ErrUnknownField, "%s", name)
	}
	if !d.Type.supported() {
		return Value{}, wrapf(ErrAuxTypeUnsupported, "field %s of type %s", name, d.Type)
	}
	v, ok := r.aux[name]
	if !ok {
		return Value{}, wrapf(ErrAuxValueMissing, "read %s field %s", r.readID, name)
	}
	if d.Type.IsEnum() {
		return resolveEnum(d, v.data.(uint8))
	}
	return v, nil
}

// HasAux reports whether the record carries a value for name
func (r *Record) HasAux(name string) bool {
	_, ok := r.aux[name]
	return ok
}

// AuxNames returns the names of the values present, in column order
func (r *Record) AuxNames() []string {
	var names []string
	if r.reg == nil {
		return names
	}
	for _, d := range r.reg.fields {
		if _, ok := r.aux[d.Name]; ok {
			names = append(names, d.Name)
		}
	}
	return names
}

// Equal reports whether two records hold the same data
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.readID != o.readID || r.readGroup != o.readGroup ||
		r.digitisation != o.digitisation || r.offset != o.offset ||
		r.rng != o.rng || r.samplingRate != o.samplingRate ||
		!slices.Equal(r.signal, o.signal) || len(r.aux) != len(o.aux) {
		return false
	}
	for name, v := range r.aux {
		ov, ok := o.aux[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (r *Record) String() string {
	return fmt.Sprintf("Record{%s group=%d samples=%d aux=%d}", r.readID, r.readGroup, len(r.signal), len(r.aux))
}

func (r *Record) descriptor(name string) (FieldDescriptor, bool) {
	if r.reg == nil {
		return FieldDescriptor{}, false
	}
	i := r.reg.index(name)
	if i < 0 {
		return FieldDescriptor{}, false
	}
	return r.reg.fields[i], true
}

// AuxAs returns an auxiliary value as T. It fails with a TypeMismatchError
// when T does not match the declared type; enum fields read as string.
func AuxAs[T any](r *Record, name string) (T, error) {
	var zero T
	v, err := r.Aux(name)
	if err != nil {
		return zero, err
	}
	out, ok := As[T](v)
	if !ok {
		return zero, &TypeMismatchError{Field: name, Declared: v.Type(), Requested: fmt.Sprintf("%T", zero)}
	}
	return out, nil
}
