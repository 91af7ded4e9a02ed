package tindex

import (
	"fmt"

	"go-tdms/tdms/tvalue"
)

// Kind tags the raw-data-index variants. The set is closed: every consumer
// switches over all four.
type Kind int

const (
	// KindNoData marks an object present in metadata with no samples this
	// segment.
	KindNoData = Kind(iota)
	// KindSamePrevious reuses the registry's current layout for the path.
	KindSamePrevious
	// KindFixed is an explicit layout: data type, dimension, value count,
	// and for strings a total byte footprint.
	KindFixed
	// KindDaqmx is the DAQmx composite-buffer layout.
	KindDaqmx
)

const (
	markerSamePrevious        = uint32(0xFFFFFFFF)
	markerNoData              = uint32(0x00000000)
	markerFormatChangingScale = uint32(0x69120000)
	markerDigitalLineScale    = uint32(0x69130000)
)

type (
	// Scaler describes one DAQmx channel window inside the shared raw buffer.
	Scaler struct {
		DataType       tvalue.DataType `json:"data_type"`
		RawBufferIndex uint32          `json:"raw_buffer_index"`
		RawByteOffset  uint32          `json:"raw_byte_offset"`
		SampleBitWidth uint32          `json:"sample_bit_width"`
		ScaleID        uint32          `json:"scale_id"`
	}

	// DaqmxInfo is the composite layout record: the scaler list plus the
	// width of each raw buffer making up one sample row.
	DaqmxInfo struct {
		Scalers         []Scaler `json:"scalers"`
		RawBufferWidths []uint32 `json:"raw_buffer_widths"`
	}

	// Index is one object's raw-data layout for a segment.
	Index struct {
		Kind       Kind            `json:"kind"`
		DataType   tvalue.DataType `json:"data_type"`
		Dimension  uint32          `json:"dimension"`
		ValueCount uint64          `json:"value_count"`
		// TotalBytes is the object's footprint in one chunk: recorded in the
		// file for strings, computed as width x count otherwise.
		TotalBytes uint64     `json:"total_bytes"`
		Daqmx      *DaqmxInfo `json:"daqmx,omitempty"`
	}

	// ErrInvalidRecord reports a structured index record whose declared
	// length disagrees with the bytes consumed, or whose fields break a
	// format invariant.
	ErrInvalidRecord struct {
		Declared uint32
		Consumed int64
		Reason   string
	}
)

func (r ErrInvalidRecord) Error() string {
	if r.Reason != "" {
		return fmt.Sprintf("invalid raw data index record: %s", r.Reason)
	}
	return fmt.Sprintf(
		"invalid raw data index record: declared %d bytes, consumed %d",
		r.Declared, r.Consumed,
	)
}

// Concrete reports whether the index carries an actual layout.
func (r Index) Concrete() bool {
	return r.Kind == KindFixed || r.Kind == KindDaqmx
}

// RowWidth is the byte width of one DAQmx sample row: the sum of the raw
// buffer widths.
func (r DaqmxInfo) RowWidth() int64 {
	width := int64(0)
	for _, w := range r.RawBufferWidths {
		width += int64(w)
	}
	return width
}
