package tvalue

import (
	"math"

	"github.com/pkg/errors"

	"go-tdms/tdms/tbytes"
)

type (
	// Value is one typed scalar, as attached to an object by a property.
	Value struct {
		Type DataType `json:"type"`
		Data any      `json:"data"`
	}
)

// DecodeScalar reads a single value of the given type from the reader, using
// the reader's byte order. Property lists are the main caller.
func DecodeScalar(reader *tbytes.Reader, dtype DataType) (Value, error) {
	value := Value{Type: dtype}
	err := error(nil)

	switch dtype {
	case Void:
		value.Data = nil
	case I8:
		var raw uint8
		raw, err = reader.ReadUint8()
		value.Data = int8(raw)
	case I16:
		var raw uint16
		raw, err = reader.ReadUint16()
		value.Data = int16(raw)
	case I32:
		value.Data, err = reader.ReadInt32()
	case I64:
		value.Data, err = reader.ReadInt64()
	case U8:
		value.Data, err = reader.ReadUint8()
	case U16:
		value.Data, err = reader.ReadUint16()
	case U32:
		value.Data, err = reader.ReadUint32()
	case U64:
		value.Data, err = reader.ReadUint64()
	case SingleFloat, SingleFloatWithUnit:
		var raw uint32
		raw, err = reader.ReadUint32()
		value.Data = math.Float32frombits(raw)
	case DoubleFloat, DoubleFloatWithUnit:
		var raw uint64
		raw, err = reader.ReadUint64()
		value.Data = math.Float64frombits(raw)
	case ExtendedFloat, ExtendedFloatWithUnit:
		var bs []byte
		bs, err = reader.ReadBytes(10)
		if err == nil {
			value.Data = extendedToFloat64(bs, reader.Order())
		}
	case Boolean:
		var raw uint8
		raw, err = reader.ReadUint8()
		value.Data = raw != 0
	case String:
		value.Data, err = reader.ReadString()
	case TimeStamp:
		value.Data, err = decodeTimestamp(reader)
	case ComplexSingleFloat:
		value.Data, err = decodeComplex64(reader)
	case ComplexDoubleFloat:
		value.Data, err = decodeComplex128(reader)
	default:
		return value, ErrUnknownDataType{Code: uint32(dtype)}
	}
	if err != nil {
		return value, errors.Wrapf(err, `DecodeScalar error: read value of type "%s"`, dtype)
	}

	return value, nil
}

func decodeTimestamp(reader *tbytes.Reader) (Timestamp, error) {
	fractions, err := reader.ReadUint64()
	if err != nil {
		return Timestamp{}, err
	}
	seconds, err := reader.ReadInt64()
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Fractions: fractions, Seconds: seconds}, nil
}

func decodeComplex64(reader *tbytes.Reader) (complex64, error) {
	re, err := reader.ReadUint32()
	if err != nil {
		return 0, err
	}
	im, err := reader.ReadUint32()
	if err != nil {
		return 0, err
	}
	return complex(math.Float32frombits(re), math.Float32frombits(im)), nil
}

func decodeComplex128(reader *tbytes.Reader) (complex128, error) {
	re, err := reader.ReadUint64()
	if err != nil {
		return 0, err
	}
	im, err := reader.ReadUint64()
	if err != nil {
		return 0, err
	}
	return complex(math.Float64frombits(re), math.Float64frombits(im)), nil
}
