package slow5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_EncodeDecode(t *testing.T) {
	values := allValues()
	for _, d := range allFields() {
		t.Run(d.Name, func(t *testing.T) {
			v, err := checkValue(d, values[d.Name])
			require.NoError(t, err)

			raw := appendValue(nil, v)
			got, err := decodeValue(d, raw)
			require.NoError(t, err)

			if d.Type.IsEnum() {
				resolved, err := resolveEnum(d, got.data.(uint8))
				require.NoError(t, err)
				assert.True(t, v.Equal(resolved))
				label, _ := resolved.Label()
				assert.Equal(t, "signal_positive", label)
				return
			}
			assert.True(t, v.Equal(got), "want %v, got %v", v, got)
		})
	}
}

func TestValue_DecodeCopies(t *testing.T) {
	d := Field("a", ArrayOf(TypeInt16))
	raw := appendValue(nil, Array([]int16{1, 2, 3}))

	v, err := decodeValue(d, raw)
	require.NoError(t, err)
	for i := range raw {
		raw[i] = 0xff
	}
	got, ok := As[[]int16](v)
	require.True(t, ok)
	assert.Equal(t, []int16{1, 2, 3}, got)

	s, err := decodeValue(Field("s", TypeString), []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", s.String())
}

func TestValue_DecodeWrongWidth(t *testing.T) {
	_, err := decodeValue(Field("x", TypeUint32), []byte{1, 2})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = decodeValue(Field("x", ArrayOf(TypeUint16)), []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestValue_CheckTypeMismatch(t *testing.T) {
	d := Field("channel", TypeUint32)

	_, err := checkValue(d, Int32(5))
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "channel", mismatch.Field)
	assert.Equal(t, TypeUint32, mismatch.Declared)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = checkValue(d, Array([]uint32{5}))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = checkValue(d, Value{})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestValue_CheckEnum(t *testing.T) {
	d := EnumField("label", "A", "B")

	v, err := checkValue(d, Enum("B"))
	require.NoError(t, err)
	idx, ok := v.EnumIndex()
	require.True(t, ok)
	assert.Equal(t, uint8(1), idx)

	_, err = checkValue(d, Enum("C"))
	assert.ErrorIs(t, err, ErrUnknownEnumLabel)

	v, err = checkValue(d, EnumIndex(0))
	require.NoError(t, err)
	label, _ := v.Label()
	assert.Equal(t, "A", label)

	_, err = checkValue(d, EnumIndex(2))
	assert.ErrorIs(t, err, ErrEnumLabelOutOfRange)
}

func TestValue_As(t *testing.T) {
	u, ok := As[uint32](Uint32(7))
	assert.True(t, ok)
	assert.Equal(t, uint32(7), u)

	_, ok = As[int64](Uint32(7))
	assert.False(t, ok)

	c, ok := As[byte](Char('q'))
	assert.True(t, ok)
	assert.Equal(t, byte('q'), c)

	s, ok := As[string](Enum("A"))
	assert.True(t, ok)
	assert.Equal(t, "A", s)

	arr := []float32{1, 2}
	v := Array(arr)
	arr[0] = 9
	got, ok := As[[]float32](v)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)
	got[1] = 9
	again, _ := As[[]float32](v)
	assert.Equal(t, []float32{1, 2}, again)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "1,2,3", Array([]uint8{1, 2, 3}).String())
	assert.Equal(t, "x", Char('x').String())
	assert.Equal(t, "-4", Int8(-4).String())
	assert.Equal(t, "B", Enum("B").String())
	assert.Equal(t, "#3", EnumIndex(3).String())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Int16(3).Equal(Int16(3)))
	assert.False(t, Int16(3).Equal(Int32(3)))
	assert.True(t, Array([]int8{1}).Equal(Array([]int8{1})))
	assert.False(t, Array([]int8{1}).Equal(Array([]int8{2})))
	assert.True(t, Enum("A").Equal(Enum("A")))
	assert.False(t, Value{}.IsValid())
}
