package slow5

import (
	"maps"
	"slices"

	"github.com/ssargent/slow5/pkg/codec"
)

// Registry is the ordered set of auxiliary field descriptors of a header.
// It is mutable until the first record is written and immutable after.
type Registry struct {
	fields    []FieldDescriptor
	byName    map[string]int
	committed bool
}

// NewRegistry creates an empty, uncommitted registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Declare adds a field. Declaration order is the column order on disk.
func (r *Registry) Declare(d FieldDescriptor) error {
	if r.committed {
		return wrapf(ErrRegistryCommitted, "cannot declare field %s", d.Name)
	}
	if err := d.validate(); err != nil {
		return err
	}
	if _, ok := r.byName[d.Name]; ok {
		return wrapf(ErrDuplicateField, "%s", d.Name)
	}

	d = d.clone()
	if d.Policy == PolicyDefault {
		d.Default, _ = checkValue(d, d.Default)
	}
	r.byName[d.Name] = len(r.fields)
	r.fields = append(r.fields, d)
	return nil
}

// Describe returns the descriptor of a field
func (r *Registry) Describe(name string) (FieldDescriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return r.fields[i].clone(), true
}

// Fields returns a copy of all descriptors in column order
func (r *Registry) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(r.fields))
	for i, d := range r.fields {
		out[i] = d.clone()
	}
	return out
}

// Names returns the field names in column order
func (r *Registry) Names() []string {
	out := make([]string, len(r.fields))
	for i, d := range r.fields {
		out[i] = d.Name
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.fields)
}

// Committed reports whether the registry can no longer change
func (r *Registry) Committed() bool {
	return r.committed
}

// EnumLabels returns the label table of an enum field
func (r *Registry) EnumLabels(name string) ([]string, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, wrapf(ErrUnknownField, "%s", name)
	}
	d := r.fields[i]
	if !d.Type.IsEnum() {
		return nil, wrapf(ErrUnknownField, "%s is %s, not an enum", name, d.Type)
	}
	return append([]string(nil), d.EnumLabels...), nil
}

func (r *Registry) commit() {
	r.committed = true
}

// snapshot returns a frozen copy of an uncommitted registry, or r itself
// once it is committed
func (r *Registry) snapshot() *Registry {
	if r.committed {
		return r
	}
	return &Registry{
		fields:    slices.Clip(r.fields),
		byName:    maps.Clone(r.byName),
		committed: true,
	}
}

// index returns the column position of a field, or -1
func (r *Registry) index(name string) int {
	if i, ok := r.byName[name]; ok {
		return i
	}
	return -1
}

func (r *Registry) auxSpecs() []codec.AuxSpec {
	specs := make([]codec.AuxSpec, len(r.fields))
	for i, d := range r.fields {
		specs[i] = codec.AuxSpec{
			Name:       d.Name,
			Type:       d.Type.auxType(),
			EnumLabels: append([]string(nil), d.EnumLabels...),
		}
	}
	return specs
}

// registryFromHeader builds the committed registry of an existing file.
// The codec has already checked the column layout.
func registryFromHeader(h *codec.Header) *Registry {
	r := NewRegistry()
	for _, spec := range h.Aux {
		r.byName[spec.Name] = len(r.fields)
		r.fields = append(r.fields, FieldDescriptor{
			Name:       spec.Name,
			Type:       fieldTypeOf(spec.Type),
			EnumLabels: append([]string(nil), spec.EnumLabels...),
		})
	}
	r.commit()
	return r
}
