package slow5

import (
	"slices"

	"github.com/ssargent/slow5/pkg/codec"
)

// decodeRecord copies a raw record into an owned Record. raw aliases the
// file reader's scratch memory and must not be retained.
func decodeRecord(raw *codec.RawRecord, reg *Registry, readGroups uint32) (*Record, error) {
	if len(raw.ReadID) == 0 {
		return nil, wrapf(ErrDecode, "empty read id")
	}
	if uint64(len(raw.RawSignal)) != raw.LenRawSignal {
		return nil, wrapf(ErrDecode, "read %s declares %d samples, has %d", raw.ReadID, raw.LenRawSignal, len(raw.RawSignal))
	}
	if raw.ReadGroup >= readGroups {
		return nil, wrapf(ErrDecode, "read %s group %d of %d", raw.ReadID, raw.ReadGroup, readGroups)
	}
	if len(raw.Aux) != len(reg.fields) {
		return nil, wrapf(ErrDecode, "read %s has %d aux columns, header declares %d", raw.ReadID, len(raw.Aux), len(reg.fields))
	}

	rec := &Record{
		readID:       string(raw.ReadID),
		readGroup:    raw.ReadGroup,
		digitisation: raw.Digitisation,
		offset:       raw.Offset,
		rng:          raw.Range,
		samplingRate: raw.SamplingRate,
		signal:       slices.Clone(raw.RawSignal),
		aux:          make(map[string]Value, len(raw.Aux)),
		reg:          reg,
	}
	if rec.signal == nil {
		rec.signal = []int16{}
	}
	for i, d := range reg.fields {
		if raw.Aux[i] == nil {
			continue
		}
		v, err := decodeValue(d, raw.Aux[i])
		if err != nil {
			return nil, err
		}
		rec.aux[d.Name] = v
	}
	return rec, nil
}

// stager converts Records into the engine representation. Encoded
// auxiliary values live in an arena that stays untouched until the engine
// append returns; release empties it for the next record.
type stager struct {
	arena []byte
	spans [][2]int
	raw   codec.RawRecord
}

func newStager() *stager {
	return &stager{arena: make([]byte, 0, 256)}
}

// stage validates rec against reg and fills the raw record. The result is
// valid until release.
func (s *stager) stage(rec *Record, reg *Registry, readGroups uint32) (*codec.RawRecord, error) {
	if rec.readID == "" {
		return nil, ErrEmptyReadID
	}
	if rec.readGroup >= readGroups {
		return nil, wrapf(ErrReadGroupOutOfRange, "read %s group %d of %d", rec.readID, rec.readGroup, readGroups)
	}
	for name := range rec.aux {
		if reg.index(name) < 0 {
			return nil, wrapf(ErrSchemaMismatch, "read %s has field %s", rec.readID, name)
		}
	}

	s.arena = append(s.arena[:0], rec.readID...)
	idEnd := len(s.arena)
	s.spans = s.spans[:0]

	for _, d := range reg.fields {
		v, ok := rec.aux[d.Name]
		if !ok {
			switch d.Policy {
			case PolicyRequired:
				return nil, wrapf(ErrAuxFieldIncomplete, "read %s field %s", rec.readID, d.Name)
			case PolicyDefault:
				v, ok = d.Default, true
			}
		}
		if !ok {
			s.spans = append(s.spans, [2]int{-1, -1})
			continue
		}

		// labels are stable across registries, indices are not
		if label, isEnum := v.Label(); isEnum {
			v = Enum(label)
		}
		checked, err := checkValue(d, v)
		if err != nil {
			return nil, err
		}
		start := len(s.arena)
		s.arena = appendValue(s.arena, checked)
		s.spans = append(s.spans, [2]int{start, len(s.arena)})
	}

	// the arena may have moved while growing, so slice it only now
	s.raw = codec.RawRecord{
		ReadID:       s.arena[:idEnd:idEnd],
		ReadGroup:    rec.readGroup,
		Digitisation: rec.digitisation,
		Offset:       rec.offset,
		Range:        rec.rng,
		SamplingRate: rec.samplingRate,
		LenRawSignal: uint64(len(rec.signal)),
		RawSignal:    rec.signal,
		Aux:          make([][]byte, len(s.spans)),
	}
	for i, sp := range s.spans {
		if sp[0] >= 0 {
			s.raw.Aux[i] = s.arena[sp[0]:sp[1]:sp[1]]
		}
	}
	return &s.raw, nil
}

func (s *stager) release() {
	s.arena = s.arena[:0]
	s.raw = codec.RawRecord{}
}
