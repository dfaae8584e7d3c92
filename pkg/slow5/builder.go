package slow5

import (
	"slices"
)

const (
	fieldReadID       = "read_id"
	fieldReadGroup    = "read_group"
	fieldRawSignal    = "raw_signal"
	fieldDigitisation = "digitisation"
	fieldOffset       = "offset"
	fieldRange        = "range"
	fieldSamplingRate = "sampling_rate"
)

// RecordBuilder stages the fields of one record and validates them in
// Build. A builder may be reused after Reset.
type RecordBuilder struct {
	reg *Registry

	readID       *string
	readGroup    *uint32
	digitisation *float64
	offset       *float64
	rng          *float64
	samplingRate *float64
	signal       []int16
	signalSet    bool

	aux map[string]Value
}

// NewRecordBuilder creates a builder whose auxiliary values are checked
// against reg
func NewRecordBuilder(reg *Registry) *RecordBuilder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &RecordBuilder{reg: reg, aux: make(map[string]Value)}
}

func (b *RecordBuilder) ReadID(id string) *RecordBuilder {
	b.readID = &id
	return b
}

func (b *RecordBuilder) ReadGroup(g uint32) *RecordBuilder {
	b.readGroup = &g
	return b
}

func (b *RecordBuilder) Digitisation(v float64) *RecordBuilder {
	b.digitisation = &v
	return b
}

func (b *RecordBuilder) Offset(v float64) *RecordBuilder {
	b.offset = &v
	return b
}

func (b *RecordBuilder) Range(v float64) *RecordBuilder {
	b.rng = &v
	return b
}

func (b *RecordBuilder) SamplingRate(v float64) *RecordBuilder {
	b.samplingRate = &v
	return b
}

// RawSignal stages a copy of samples
func (b *RecordBuilder) RawSignal(samples []int16) *RecordBuilder {
	b.signal = slices.Clone(samples)
	if b.signal == nil {
		b.signal = []int16{}
	}
	b.signalSet = true
	return b
}

// SetAux stages an auxiliary value. It fails with ErrUnknownField for a
// field the registry does not declare, with a TypeMismatchError when v has
// a different type, and with ErrUnknownEnumLabel for a label outside the
// field's table.
func (b *RecordBuilder) SetAux(name string, v Value) error {
	i := b.reg.index(name)
	if i < 0 {
		return wrapf(ErrUnknownField, "%s", name)
	}
	checked, err := checkValue(b.reg.fields[i], v)
	if err != nil {
		return err
	}
	b.aux[name] = checked
	return nil
}

// Build validates the staged fields and returns an owned Record
func (b *RecordBuilder) Build() (*Record, error) {
	switch {
	case b.readID == nil:
		return nil, &MissingFieldError{Field: fieldReadID}
	case b.readGroup == nil:
		return nil, &MissingFieldError{Field: fieldReadGroup}
	case !b.signalSet:
		return nil, &MissingFieldError{Field: fieldRawSignal}
	case b.digitisation == nil:
		return nil, &MissingFieldError{Field: fieldDigitisation}
	case b.offset == nil:
		return nil, &MissingFieldError{Field: fieldOffset}
	case b.rng == nil:
		return nil, &MissingFieldError{Field: fieldRange}
	case b.samplingRate == nil:
		return nil, &MissingFieldError{Field: fieldSamplingRate}
	}
	if *b.readID == "" {
		return nil, ErrEmptyReadID
	}

	aux := make(map[string]Value, len(b.reg.fields))
	for _, d := range b.reg.fields {
		v, ok := b.aux[d.Name]
		if !ok {
			switch d.Policy {
			case PolicyRequired:
				return nil, wrapf(ErrAuxFieldIncomplete, "%s", d.Name)
			case PolicyDefault:
				v, ok = d.Default, true
			}
		}
		if ok {
			aux[d.Name] = v
		}
	}

	return &Record{
		readID:       *b.readID,
		readGroup:    *b.readGroup,
		digitisation: *b.digitisation,
		offset:       *b.offset,
		rng:          *b.rng,
		samplingRate: *b.samplingRate,
		signal:       slices.Clone(b.signal),
		aux:          aux,
		reg:          b.reg.snapshot(),
	}, nil
}

// Reset clears all staged fields
func (b *RecordBuilder) Reset() {
	reg := b.reg
	*b = RecordBuilder{reg: reg, aux: make(map[string]Value)}
}
