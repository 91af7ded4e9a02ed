package tvalue

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"go-tdms/tdms/tbytes"
)

type (
	// VectorDecoder turns a run of raw bytes at the reader's position into a
	// typed vector. count is the number of values; totalBytes is the run's
	// declared footprint, which only variable-length decoders need.
	VectorDecoder func(reader *tbytes.Reader, count int, totalBytes int64) (Vector, error)
)

// decoders is the dispatch table from data-type code to decoder. New types
// are added here (or via Register) without touching the chunk walker.
// FixedPoint and the DAQmx scaling formula stay unregistered on purpose:
// decoding them must fail loudly instead of guessing.
var decoders = map[DataType]VectorDecoder{}

func init() {
	Register(Void, func(_ *tbytes.Reader, _ int, _ int64) (Vector, error) {
		return Vector{Type: Void}, nil
	})
	Register(I8, fixedDecoder(I8, 1, func(bs []byte, _ binary.ByteOrder) int8 {
		return int8(bs[0])
	}))
	Register(I16, fixedDecoder(I16, 2, func(bs []byte, order binary.ByteOrder) int16 {
		return int16(order.Uint16(bs))
	}))
	Register(I32, fixedDecoder(I32, 4, func(bs []byte, order binary.ByteOrder) int32 {
		return int32(order.Uint32(bs))
	}))
	Register(I64, fixedDecoder(I64, 8, func(bs []byte, order binary.ByteOrder) int64 {
		return int64(order.Uint64(bs))
	}))
	Register(U8, fixedDecoder(U8, 1, func(bs []byte, _ binary.ByteOrder) uint8 {
		return bs[0]
	}))
	Register(U16, fixedDecoder(U16, 2, func(bs []byte, order binary.ByteOrder) uint16 {
		return order.Uint16(bs)
	}))
	Register(U32, fixedDecoder(U32, 4, func(bs []byte, order binary.ByteOrder) uint32 {
		return order.Uint32(bs)
	}))
	Register(U64, fixedDecoder(U64, 8, func(bs []byte, order binary.ByteOrder) uint64 {
		return order.Uint64(bs)
	}))
	Register(SingleFloat, fixedDecoder(SingleFloat, 4, float32FromBytes))
	Register(DoubleFloat, fixedDecoder(DoubleFloat, 8, float64FromBytes))
	Register(SingleFloatWithUnit, fixedDecoder(SingleFloatWithUnit, 4, float32FromBytes))
	Register(DoubleFloatWithUnit, fixedDecoder(DoubleFloatWithUnit, 8, float64FromBytes))
	Register(ExtendedFloat, fixedDecoder(ExtendedFloat, 10, extendedToFloat64))
	Register(ExtendedFloatWithUnit, fixedDecoder(ExtendedFloatWithUnit, 10, extendedToFloat64))
	Register(Boolean, fixedDecoder(Boolean, 1, func(bs []byte, _ binary.ByteOrder) bool {
		return bs[0] != 0
	}))
	Register(TimeStamp, fixedDecoder(TimeStamp, 16, func(bs []byte, order binary.ByteOrder) Timestamp {
		return Timestamp{
			Fractions: order.Uint64(bs[:8]),
			Seconds:   int64(order.Uint64(bs[8:])),
		}
	}))
	Register(ComplexSingleFloat, fixedDecoder(ComplexSingleFloat, 8, func(bs []byte, order binary.ByteOrder) complex64 {
		return complex(float32FromBytes(bs[:4], order), float32FromBytes(bs[4:], order))
	}))
	Register(ComplexDoubleFloat, fixedDecoder(ComplexDoubleFloat, 16, func(bs []byte, order binary.ByteOrder) complex128 {
		return complex(float64FromBytes(bs[:8], order), float64FromBytes(bs[8:], order))
	}))
	Register(String, decodeStrings)
}

// Register installs or replaces the decoder for a data-type code.
func Register(dtype DataType, decoder VectorDecoder) {
	decoders[dtype] = decoder
}

// Registered reports whether a decoder exists for the code.
func Registered(dtype DataType) bool {
	_, ok := decoders[dtype]
	return ok
}

// DecodeVector dispatches one value run to the registered decoder.
func DecodeVector(reader *tbytes.Reader, dtype DataType, count int, totalBytes int64) (Vector, error) {
	decoder, ok := decoders[dtype]
	if !ok {
		return Vector{}, ErrUnknownDataType{Code: uint32(dtype)}
	}
	vector, err := decoder(reader, count, totalBytes)
	if err != nil {
		return Vector{}, errors.Wrapf(err, `DecodeVector error: %d values of type "%s"`, count, dtype)
	}
	return vector, nil
}

func fixedDecoder[T any](dtype DataType, width int, convert func(bs []byte, order binary.ByteOrder) T) VectorDecoder {
	return func(reader *tbytes.Reader, count int, _ int64) (Vector, error) {
		bs, err := reader.ReadBytes(width * count)
		if err != nil {
			return Vector{}, err
		}
		out := make([]T, count)
		for i := range out {
			out[i] = convert(bs[i*width:(i+1)*width], reader.Order())
		}
		return Vector{Type: dtype, data: out}, nil
	}
}

// decodeStrings reads a string value run: count cumulative end offsets
// followed by the concatenated string bytes. totalBytes, when known, must
// match what the table accounts for.
func decodeStrings(reader *tbytes.Reader, count int, totalBytes int64) (Vector, error) {
	offsets := make([]uint32, count)
	for i := range offsets {
		offset, err := reader.ReadUint32()
		if err != nil {
			return Vector{}, errors.Wrapf(err, "decodeStrings error: read offset %d", i)
		}
		if i > 0 && offset < offsets[i-1] {
			return Vector{}, errors.Errorf(
				"decodeStrings error: offset table not monotonic at entry %d (%d < %d)",
				i, offset, offsets[i-1],
			)
		}
		offsets[i] = offset
	}

	out := make([]string, count)
	previous := uint32(0)
	for i, offset := range offsets {
		bs, err := reader.ReadBytes(int(offset - previous))
		if err != nil {
			return Vector{}, errors.Wrapf(err, "decodeStrings error: read string %d", i)
		}
		out[i] = string(bs)
		previous = offset
	}

	if totalBytes > 0 {
		consumed := int64(4*count) + int64(previous)
		if consumed != totalBytes {
			return Vector{}, errors.Errorf(
				"decodeStrings error: consumed %d bytes, footprint declares %d",
				consumed, totalBytes,
			)
		}
	}

	return Vector{Type: String, data: out}, nil
}

func float32FromBytes(bs []byte, order binary.ByteOrder) float32 {
	return math.Float32frombits(order.Uint32(bs))
}

func float64FromBytes(bs []byte, order binary.ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(bs))
}

// extendedToFloat64 narrows an 80-bit x87 extended float to float64. The
// explicit integer bit of the 64-bit significand is kept as-is; exponent
// 0x7FFF maps to Inf/NaN.
func extendedToFloat64(bs []byte, order binary.ByteOrder) float64 {
	var se uint16
	var significand uint64
	if order == binary.ByteOrder(binary.BigEndian) {
		se = binary.BigEndian.Uint16(bs[:2])
		significand = binary.BigEndian.Uint64(bs[2:])
	} else {
		significand = binary.LittleEndian.Uint64(bs[:8])
		se = binary.LittleEndian.Uint16(bs[8:])
	}

	sign := 1.0
	if se&0x8000 != 0 {
		sign = -1.0
	}
	exponent := int(se & 0x7FFF)

	switch exponent {
	case 0:
		// subnormal
		return sign * math.Ldexp(float64(significand), -16382-63)
	case 0x7FFF:
		if significand<<1 == 0 {
			return sign * math.Inf(1)
		}
		return math.NaN()
	default:
		return sign * math.Ldexp(float64(significand), exponent-16383-63)
	}
}
