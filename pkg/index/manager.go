package index

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/ssargent/slow5/pkg/bptree"
	"github.com/ssargent/slow5/pkg/slow5"
)

// DefaultOrder is the B+Tree order used for secondary indexes
const DefaultOrder = 32

var (
	// ErrUnindexable is returned for array fields
	ErrUnindexable = errors.New("field type cannot be indexed")
	// ErrNoIndex is returned for a field the manager did not build
	ErrNoIndex = errors.New("no index for field")
)

// Bound is one end of a range search. A nil Value leaves that end open.
type Bound struct {
	Value     interface{}
	Inclusive bool
}

// SecondaryIndex maps the values of one auxiliary field to read ids. Scalar
// numbers are ordered numerically; strings, chars and enum labels
// lexically.
type SecondaryIndex struct {
	fieldName string
	numeric   bool
	nums      *bptree.BPlusTree[float64, []string]
	text      *bptree.BPlusTree[string, []string]
	mutex     sync.RWMutex
	entries   int
}

// NewSecondaryIndex creates an empty index for a field of type t
func NewSecondaryIndex(fieldName string, t slow5.FieldType, order int) (*SecondaryIndex, error) {
	idx := &SecondaryIndex{fieldName: fieldName}
	switch {
	case t.IsArray():
		return nil, fmt.Errorf("%w: %s is %s", ErrUnindexable, fieldName, t)
	case t.IsEnum(), t == slow5.TypeString, t == slow5.TypeChar:
		idx.text = bptree.NewBPlusTree[string, []string](order)
	default:
		idx.numeric = true
		idx.nums = bptree.NewBPlusTree[float64, []string](order)
	}
	return idx, nil
}

// Field returns the indexed field name
func (idx *SecondaryIndex) Field() string {
	return idx.fieldName
}

// Numeric reports whether values compare as numbers
func (idx *SecondaryIndex) Numeric() bool {
	return idx.numeric
}

// Len returns the number of indexed (value, read) pairs
func (idx *SecondaryIndex) Len() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.entries
}

// Insert adds a read under its value. NaN values are not indexed.
func (idx *SecondaryIndex) Insert(v slow5.Value, readID string) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	add := func(old []string, _ bool) []string { return append(old, readID) }
	if idx.numeric {
		f, err := numberOf(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", idx.fieldName, err)
		}
		if math.IsNaN(f) {
			return nil
		}
		idx.nums.Upsert(f, add)
	} else {
		idx.text.Upsert(v.String(), add)
	}
	idx.entries++
	return nil
}

// Search finds reads whose value equals fieldValue
func (idx *SecondaryIndex) Search(fieldValue interface{}) ([]string, error) {
	bound := Bound{Value: fieldValue, Inclusive: true}
	return idx.SearchRange(bound, bound)
}

// SearchRange finds reads with values between start and end
func (idx *SecondaryIndex) SearchRange(start, end Bound) ([]string, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	if idx.numeric {
		lo, hi, err := numericBounds(start, end)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", idx.fieldName, err)
		}
		return scanRange(idx.nums, lo, hi, start.Inclusive, end.Inclusive), nil
	}
	lo, hi, err := textBounds(start, end)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", idx.fieldName, err)
	}
	return scanRange(idx.text, lo, hi, start.Inclusive, end.Inclusive), nil
}

func scanRange[K float64 | string](tree *bptree.BPlusTree[K, []string], lo, hi *K, loInc, hiInc bool) []string {
	ids := []string{}
	visit := func(k K, v []string) bool {
		if lo != nil && !loInc && k == *lo {
			return true
		}
		if hi != nil && (k > *hi || (!hiInc && k == *hi)) {
			return false
		}
		ids = append(ids, v...)
		return true
	}
	if lo != nil {
		tree.Ascend(*lo, visit)
	} else {
		tree.AscendAll(visit)
	}
	return ids
}

func numericBounds(start, end Bound) (*float64, *float64, error) {
	var lo, hi *float64
	for _, b := range []struct {
		bound Bound
		dst   **float64
	}{{start, &lo}, {end, &hi}} {
		if b.bound.Value == nil {
			continue
		}
		f, err := toFloat(b.bound.Value)
		if err != nil {
			return nil, nil, err
		}
		*b.dst = &f
	}
	return lo, hi, nil
}

func textBounds(start, end Bound) (*string, *string, error) {
	var lo, hi *string
	for _, b := range []struct {
		bound Bound
		dst   **string
	}{{start, &lo}, {end, &hi}} {
		if b.bound.Value == nil {
			continue
		}
		s, ok := b.bound.Value.(string)
		if !ok {
			return nil, nil, fmt.Errorf("text index compared with %T", b.bound.Value)
		}
		*b.dst = &s
	}
	return lo, hi, nil
}

// toFloat converts a query operand to a number
func toFloat(v interface{}) (float64, error) {
	f, err := operand(v)
	if err != nil {
		return 0, err
	}
	// NaN is unordered, so no bound on it can match
	if math.IsNaN(f) {
		return 0, fmt.Errorf("NaN is not comparable")
	}
	return f, nil
}

func operand(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot compare %T with a number", v)
	}
}

// numberOf widens a scalar aux value to float64. 64-bit integers above
// 2^53 lose precision.
func numberOf(v slow5.Value) (float64, error) {
	switch x := v.Interface().(type) {
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("value of type %s is not a number", v.Type())
	}
}

// Source is what an index build reads from. *slow5.Reader implements it.
type Source interface {
	Registry() *slow5.Registry
	Records() *slow5.RecordIter
}

var _ Source = (*slow5.Reader)(nil)

// IndexManager builds and holds secondary indexes over the fields of one
// file
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	order   int
	skipped int
}

// NewIndexManager creates a new index manager
func NewIndexManager(order int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// Build indexes fields of every decodable record of r in one pass. Reads
// that fail to decode are skipped and counted.
func (im *IndexManager) Build(r Source, fields ...string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	reg := r.Registry()
	building := make([]*SecondaryIndex, 0, len(fields))
	for _, name := range fields {
		if _, ok := im.indexes[name]; ok {
			continue
		}
		d, ok := reg.Describe(name)
		if !ok {
			return fmt.Errorf("%w: %s", slow5.ErrUnknownField, name)
		}
		idx, err := NewSecondaryIndex(name, d.Type, im.order)
		if err != nil {
			return err
		}
		building = append(building, idx)
	}
	if len(building) == 0 {
		return nil
	}

	skipped := 0
	it := r.Records()
	for it.Next() {
		rec, err := it.Record()
		if err != nil {
			skipped++
			continue
		}
		for _, idx := range building {
			v, err := rec.Aux(idx.fieldName)
			if errors.Is(err, slow5.ErrAuxValueMissing) {
				continue
			}
			if err != nil {
				return err
			}
			if err := idx.Insert(v, rec.ReadID()); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	for _, idx := range building {
		im.indexes[idx.fieldName] = idx
	}
	im.skipped = skipped
	return nil
}

// GetIndex returns the index of a built field
func (im *IndexManager) GetIndex(fieldName string) (*SecondaryIndex, error) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	idx, ok := im.indexes[fieldName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, fieldName)
	}
	return idx, nil
}

// Skipped returns the number of records the last build could not decode
func (im *IndexManager) Skipped() int {
	im.mutex.RLock()
	defer im.mutex.RUnlock()
	return im.skipped
}
