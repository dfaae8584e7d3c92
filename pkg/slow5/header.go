package slow5

import (
	"github.com/ssargent/slow5/pkg/codec"
)

// Header is a read-only view of a file header
type Header struct {
	raw *codec.Header
	reg *Registry
}

func newHeaderView(raw *codec.Header, reg *Registry) *Header {
	return &Header{raw: raw, reg: reg}
}

// NumReadGroups returns the number of read groups
func (h *Header) NumReadGroups() uint32 {
	return h.raw.NumReadGroups
}

// AttributeKeys returns the attribute keys in declaration order
func (h *Header) AttributeKeys() []string {
	return h.raw.AttributeKeys()
}

// Attribute returns the value of key for a read group
func (h *Header) Attribute(key string, group uint32) (string, error) {
	if group >= h.raw.NumReadGroups {
		return "", wrapf(ErrAttributeNotFound, "read group %d of %d", group, h.raw.NumReadGroups)
	}
	v, ok := h.raw.Attribute(key, group)
	if !ok {
		return "", wrapf(ErrAttributeNotFound, "%s in read group %d", key, group)
	}
	return v, nil
}

// Registry returns the auxiliary field registry
func (h *Header) Registry() *Registry {
	return h.reg
}

// AuxNames returns the auxiliary field names in column order
func (h *Header) AuxNames() []string {
	return h.reg.Names()
}

func (h *Header) RecordCompression() RecordCompression {
	return h.raw.RecordCompression
}

func (h *Header) SignalCompression() SignalCompression {
	return h.raw.SignalCompression
}
