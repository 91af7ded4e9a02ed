package tindex

import (
	"math"

	"github.com/pkg/errors"

	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tvalue"
)

// Decode reads one object's raw-data-index record. The leading u32 is a
// marker: all-ones means "same as previous segment", zero means "no data
// this segment", the two DAQmx scaler ids (or daqmx=true from the TOC) mean
// the composite form, and anything else is the byte length of the fixed
// record that follows.
func Decode(reader *tbytes.Reader, daqmx bool) (Index, error) {
	marker, err := reader.ReadUint32()
	if err != nil {
		return Index{}, errors.Wrap(err, "Decode error: read index marker")
	}

	switch marker {
	case markerSamePrevious:
		return Index{Kind: KindSamePrevious}, nil
	case markerNoData:
		return Index{Kind: KindNoData}, nil
	case markerFormatChangingScale, markerDigitalLineScale:
		return decodeDaqmx(reader)
	}
	if daqmx {
		return decodeDaqmx(reader)
	}
	return decodeFixed(reader, marker)
}

func decodeFixed(reader *tbytes.Reader, declared uint32) (Index, error) {
	start := reader.Pos()

	index, err := decodeSizeInfo(reader)
	if err != nil {
		return Index{}, err
	}
	index.Kind = KindFixed

	consumed := reader.Pos() - start
	if consumed != int64(declared) {
		return Index{}, ErrInvalidRecord{Declared: declared, Consumed: consumed}
	}
	return index, nil
}

// decodeSizeInfo reads the common layout fields: data type, dimension,
// value count, and the recorded footprint for strings.
func decodeSizeInfo(reader *tbytes.Reader) (Index, error) {
	index := Index{}

	rawType, err := reader.ReadUint32()
	if err != nil {
		return Index{}, errors.Wrap(err, "decodeSizeInfo error: read data type")
	}
	index.DataType, err = tvalue.FromRaw(rawType)
	if err != nil {
		return Index{}, err
	}

	index.Dimension, err = reader.ReadUint32()
	if err != nil {
		return Index{}, errors.Wrap(err, "decodeSizeInfo error: read dimension")
	}
	if index.Dimension != 1 {
		return Index{}, ErrInvalidRecord{
			Reason: errors.Errorf("dimension must be 1, got %d", index.Dimension).Error(),
		}
	}

	index.ValueCount, err = reader.ReadUint64()
	if err != nil {
		return Index{}, errors.Wrap(err, "decodeSizeInfo error: read value count")
	}

	if index.DataType == tvalue.String {
		index.TotalBytes, err = reader.ReadUint64()
		if err != nil {
			return Index{}, errors.Wrap(err, "decodeSizeInfo error: read string total bytes")
		}
		if index.TotalBytes > uint64(math.MaxInt64) {
			return Index{}, ErrInvalidRecord{
				Reason: errors.Errorf(
					"string footprint %d exceeds the addressable range", index.TotalBytes,
				).Error(),
			}
		}
	} else {
		width, err := index.DataType.Size()
		if err != nil {
			return Index{}, err
		}
		// an overflowing width x count would wrap to a small footprint and
		// slip past the chunk byte budget
		if width > 0 && index.ValueCount > uint64(math.MaxInt64)/uint64(width) {
			return Index{}, ErrInvalidRecord{
				Reason: errors.Errorf(
					"value count %d overflows the byte footprint for %d-byte values",
					index.ValueCount, width,
				).Error(),
			}
		}
		index.TotalBytes = uint64(width) * index.ValueCount * uint64(index.Dimension)
	}

	return index, nil
}

func decodeDaqmx(reader *tbytes.Reader) (Index, error) {
	index, err := decodeSizeInfo(reader)
	if err != nil {
		return Index{}, err
	}
	index.Kind = KindDaqmx

	scalerCount, err := reader.ReadUint32()
	if err != nil {
		return Index{}, errors.Wrap(err, "decodeDaqmx error: read scaler count")
	}
	info := DaqmxInfo{Scalers: make([]Scaler, 0, scalerCount)}
	for i := uint32(0); i < scalerCount; i++ {
		scaler, err := decodeScaler(reader)
		if err != nil {
			return Index{}, errors.Wrapf(err, "decodeDaqmx error: read scaler %d", i)
		}
		info.Scalers = append(info.Scalers, scaler)
	}

	widthCount, err := reader.ReadUint32()
	if err != nil {
		return Index{}, errors.Wrap(err, "decodeDaqmx error: read width vector size")
	}
	info.RawBufferWidths = make([]uint32, 0, widthCount)
	for i := uint32(0); i < widthCount; i++ {
		width, err := reader.ReadUint32()
		if err != nil {
			return Index{}, errors.Wrapf(err, "decodeDaqmx error: read raw buffer width %d", i)
		}
		info.RawBufferWidths = append(info.RawBufferWidths, width)
	}

	rowWidth := info.RowWidth()
	if rowWidth > 0 && index.ValueCount > uint64(math.MaxInt64)/uint64(rowWidth) {
		return Index{}, ErrInvalidRecord{
			Reason: errors.Errorf(
				"value count %d overflows the byte footprint for %d-byte rows",
				index.ValueCount, rowWidth,
			).Error(),
		}
	}
	index.Daqmx = &info
	index.TotalBytes = uint64(rowWidth) * index.ValueCount
	return index, nil
}

func decodeScaler(reader *tbytes.Reader) (Scaler, error) {
	scaler := Scaler{}

	rawType, err := reader.ReadUint32()
	if err != nil {
		return Scaler{}, errors.Wrap(err, "decodeScaler error: read data type")
	}
	scaler.DataType, err = tvalue.FromRaw(rawType)
	if err != nil {
		return Scaler{}, err
	}
	scaler.RawBufferIndex, err = reader.ReadUint32()
	if err != nil {
		return Scaler{}, errors.Wrap(err, "decodeScaler error: read raw buffer index")
	}
	scaler.RawByteOffset, err = reader.ReadUint32()
	if err != nil {
		return Scaler{}, errors.Wrap(err, "decodeScaler error: read raw byte offset")
	}
	scaler.SampleBitWidth, err = reader.ReadUint32()
	if err != nil {
		return Scaler{}, errors.Wrap(err, "decodeScaler error: read sample bit width")
	}
	scaler.ScaleID, err = reader.ReadUint32()
	if err != nil {
		return Scaler{}, errors.Wrap(err, "decodeScaler error: read scale id")
	}

	return scaler, nil
}
