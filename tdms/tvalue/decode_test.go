package tvalue

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tdms/tdms/tbytes"
)

func readerOver(bs []byte) *tbytes.Reader {
	return tbytes.NewReader(tbytes.NewBytesSource(bs))
}

func TestDecodeVector_Int32(t *testing.T) {
	reader := readerOver([]byte{
		0x01, 0x00, 0x00, 0x00,
		0xFF, 0xFF, 0xFF, 0xFF,
	})

	vector, err := DecodeVector(reader, I32, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, I32, vector.Type)
	assert.Equal(t, []int32{1, -1}, vector.Values())
}

func TestDecodeVector_Float64BigEndian(t *testing.T) {
	reader := readerOver([]byte{
		0x3F, 0xF8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 1.5
	})
	reader.SetOrder(binary.BigEndian)

	vector, err := DecodeVector(reader, DoubleFloat, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, vector.Values())
}

func TestDecodeVector_Boolean(t *testing.T) {
	reader := readerOver([]byte{0x00, 0x01, 0x02})

	vector, err := DecodeVector(reader, Boolean, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true}, vector.Values())
}

func TestDecodeVector_Strings(t *testing.T) {
	// cumulative end offsets, then the concatenated bytes
	reader := readerOver([]byte{
		0x02, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x00, 0x00,
		'a', 'b', 'c', 'd', 'e',
	})

	vector, err := DecodeVector(reader, String, 2, 13)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cde"}, vector.Values())
}

func TestDecodeVector_StringsFootprintMismatch(t *testing.T) {
	reader := readerOver([]byte{
		0x02, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x00, 0x00,
		'a', 'b', 'c', 'd', 'e',
	})

	_, err := DecodeVector(reader, String, 2, 14)
	assert.Error(t, err)
}

func TestDecodeVector_StringsNonMonotonicTable(t *testing.T) {
	reader := readerOver([]byte{
		0x05, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		'a', 'b', 'c', 'd', 'e',
	})

	_, err := DecodeVector(reader, String, 2, 13)
	assert.Error(t, err)
}

func TestDecodeVector_Timestamp(t *testing.T) {
	reader := readerOver([]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, // fractions: 2^63 = 0.5s
		0x10, 0x0E, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // seconds: 3600
	})

	vector, err := DecodeVector(reader, TimeStamp, 1, 0)
	require.NoError(t, err)

	stamps := vector.Values().([]Timestamp)
	require.Len(t, stamps, 1)
	expected := time.Date(1904, time.January, 1, 1, 0, 0, 500000000, time.UTC)
	assert.Equal(t, expected, stamps[0].Time())
}

func TestDecodeVector_ComplexDouble(t *testing.T) {
	reader := readerOver([]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F, // 1.0
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0, // -2.0
	})

	vector, err := DecodeVector(reader, ComplexDoubleFloat, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []complex128{complex(1.0, -2.0)}, vector.Values())
}

func TestDecodeVector_ExtendedFloat(t *testing.T) {
	// 1.5 in 80-bit x87: significand 0xC000000000000000, sign+exp 0x3FFF
	reader := readerOver([]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xC0,
		0xFF, 0x3F,
	})

	vector, err := DecodeVector(reader, ExtendedFloat, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, vector.Values())
}

func TestDecodeVector_UnregisteredType(t *testing.T) {
	reader := readerOver([]byte{0x00, 0x00, 0x00, 0x00})

	_, err := DecodeVector(reader, FixedPoint, 1, 0)
	unknown := ErrUnknownDataType{}
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint32(FixedPoint), unknown.Code)
}

func TestRegistered(t *testing.T) {
	assert.True(t, Registered(I32))
	assert.True(t, Registered(String))
	assert.True(t, Registered(TimeStamp))

	// no decoder on purpose: decoding these must fail instead of guessing
	assert.False(t, Registered(FixedPoint))
	assert.False(t, Registered(DAQmxRawData))
}

func TestDecodeScalar(t *testing.T) {
	reader := readerOver([]byte{
		0x03, 0x00, 0x00, 0x00, 'V', 'm', 'a', 'x',
	})
	// length prefix says 3, so only "Vma" belongs to the string
	value, err := DecodeScalar(reader, String)
	require.NoError(t, err)
	assert.Equal(t, "Vma", value.Data)

	reader = readerOver([]byte{0x2A, 0x00, 0x00, 0x00})
	value, err = DecodeScalar(reader, I32)
	require.NoError(t, err)
	assert.Equal(t, int32(42), value.Data)

	reader = readerOver([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F})
	value, err = DecodeScalar(reader, DoubleFloat)
	require.NoError(t, err)
	assert.Equal(t, 1.0, value.Data)
}

func TestVector_Extend(t *testing.T) {
	first, err := DecodeVector(readerOver([]byte{1, 0, 0, 0}), I32, 1, 0)
	require.NoError(t, err)
	second, err := DecodeVector(readerOver([]byte{2, 0, 0, 0}), I32, 1, 0)
	require.NoError(t, err)

	vector := Vector{}
	require.NoError(t, vector.Extend(first))
	require.NoError(t, vector.Extend(second))
	assert.Equal(t, []int32{1, 2}, vector.Values())
	assert.Equal(t, 2, vector.Len())

	other, err := DecodeVector(readerOver([]byte{0, 0, 0, 0, 0, 0, 0, 0}), DoubleFloat, 1, 0)
	require.NoError(t, err)
	assert.Error(t, vector.Extend(other))
}

func TestVector_Float64s(t *testing.T) {
	vector, err := DecodeVector(readerOver([]byte{1, 0, 2, 0, 3, 0}), I16, 3, 0)
	require.NoError(t, err)

	floats, err := vector.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, floats)

	strings, err := DecodeVector(readerOver([]byte{
		0x01, 0x00, 0x00, 0x00, 'x',
	}), String, 1, 5)
	require.NoError(t, err)
	_, err = strings.Float64s()
	assert.Error(t, err)
}

func TestFromRaw(t *testing.T) {
	dtype, err := FromRaw(0x03)
	assert.NoError(t, err)
	assert.Equal(t, I32, dtype)

	_, err = FromRaw(0xDEAD)
	unknown := ErrUnknownDataType{}
	assert.True(t, errors.As(err, &unknown))
}
