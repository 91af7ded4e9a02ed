package tvalue

import (
	"fmt"
)

// DataType holds a raw data-type code exactly as it appears on disk.
type DataType uint32

const (
	Void                  = DataType(0x00)
	I8                    = DataType(0x01)
	I16                   = DataType(0x02)
	I32                   = DataType(0x03)
	I64                   = DataType(0x04)
	U8                    = DataType(0x05)
	U16                   = DataType(0x06)
	U32                   = DataType(0x07)
	U64                   = DataType(0x08)
	SingleFloat           = DataType(0x09)
	DoubleFloat           = DataType(0x0A)
	ExtendedFloat         = DataType(0x0B)
	DoubleFloatWithUnit   = DataType(0x0C)
	ExtendedFloatWithUnit = DataType(0x0D)
	SingleFloatWithUnit   = DataType(0x19)
	String                = DataType(0x20)
	Boolean               = DataType(0x21)
	TimeStamp             = DataType(0x44)
	FixedPoint            = DataType(0x4F)
	ComplexSingleFloat    = DataType(0x0008000C)
	ComplexDoubleFloat    = DataType(0x0010000D)
	DAQmxRawData          = DataType(0xFFFFFFFF)
)

type (
	// ErrUnknownDataType reports a type code that is either not a known TDMS
	// code at all, or has no decoder registered. Unknown codes are never
	// decoded with a default.
	ErrUnknownDataType struct {
		Code uint32
	}

	// ErrStringSizeUndefined reports a width query on the string type, whose
	// footprint is recorded per segment rather than derived from a fixed
	// per-value size.
	ErrStringSizeUndefined struct{}
)

func (r ErrUnknownDataType) Error() string {
	return fmt.Sprintf("unknown data type code 0x%X", r.Code)
}

func (r ErrStringSizeUndefined) Error() string {
	return "string values have no fixed size; use the recorded total byte length"
}

var sizes = map[DataType]int64{
	Void:                  0,
	I8:                    1,
	I16:                   2,
	I32:                   4,
	I64:                   8,
	U8:                    1,
	U16:                   2,
	U32:                   4,
	U64:                   8,
	SingleFloat:           4,
	DoubleFloat:           8,
	ExtendedFloat:         10,
	SingleFloatWithUnit:   4,
	DoubleFloatWithUnit:   8,
	ExtendedFloatWithUnit: 10,
	Boolean:               1,
	TimeStamp:             16,
	FixedPoint:            4,
	ComplexSingleFloat:    8,
	ComplexDoubleFloat:    16,
	DAQmxRawData:          0,
}

// FromRaw validates a raw u32 against the known code set.
func FromRaw(code uint32) (DataType, error) {
	dtype := DataType(code)
	if _, ok := sizes[dtype]; !ok && dtype != String {
		return Void, ErrUnknownDataType{Code: code}
	}
	return dtype, nil
}

// Size returns the on-disk width of one value in bytes.
func (t DataType) Size() (int64, error) {
	if t == String {
		return 0, ErrStringSizeUndefined{}
	}
	size, ok := sizes[t]
	if !ok {
		return 0, ErrUnknownDataType{Code: uint32(t)}
	}
	return size, nil
}

func (t DataType) String() string {
	switch t {
	case Void:
		return "void"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case SingleFloat:
		return "f32"
	case DoubleFloat:
		return "f64"
	case ExtendedFloat:
		return "f80"
	case SingleFloatWithUnit:
		return "f32_with_unit"
	case DoubleFloatWithUnit:
		return "f64_with_unit"
	case ExtendedFloatWithUnit:
		return "f80_with_unit"
	case String:
		return "string"
	case Boolean:
		return "bool"
	case TimeStamp:
		return "timestamp"
	case FixedPoint:
		return "fixed_point"
	case ComplexSingleFloat:
		return "complex64"
	case ComplexDoubleFloat:
		return "complex128"
	case DAQmxRawData:
		return "daqmx_raw"
	}
	return fmt.Sprintf("unknown(0x%X)", uint32(t))
}
