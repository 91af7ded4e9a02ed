package tlead

import (
	"fmt"
)

const (
	// LeadInSize is the fixed byte length of every segment header.
	LeadInSize = 28

	// NextSegmentUnknown marks a segment whose writer never came back to
	// record the length (crash mid-write). The segment runs to end of file.
	NextSegmentUnknown = uint64(0xFFFFFFFFFFFFFFFF)
)

// Tag is the 4-byte marker every segment starts with.
var Tag = []byte("TDSm")

type (
	// TocFlag is one bit of the table-of-contents mask in the lead-in.
	TocFlag uint32

	// TocMask is the full flags word.
	TocMask uint32

	// LeadIn is the decoded 28-byte segment header.
	LeadIn struct {
		Toc               TocMask `json:"toc"`
		Version           uint32  `json:"version"`
		NextSegmentOffset uint64  `json:"next_segment_offset"`
		RawDataOffset     uint64  `json:"raw_data_offset"`
	}

	// Ranges are the absolute byte ranges a lead-in resolves to, given the
	// segment's start offset and the file length.
	Ranges struct {
		SegmentStart int64
		MetaStart    int64
		MetaLen      int64
		RawStart     int64
		RawLen       int64
		NextSegment  int64
		Unfinalized  bool
	}

	// ErrMalformedLeadIn reports a segment header that does not carry the
	// format tag or cannot be framed.
	ErrMalformedLeadIn struct {
		Offset int64
		Reason string
	}

	// ErrTruncatedSegment reports declared offsets that run past the end of
	// the file in the non-sentinel case.
	ErrTruncatedSegment struct {
		Offset     int64
		Declared   uint64
		FileLength int64
	}
)

const (
	TocMetaData        = TocFlag(1 << 1)
	TocNewObjList      = TocFlag(1 << 2)
	TocRawData         = TocFlag(1 << 3)
	TocInterleavedData = TocFlag(1 << 5)
	TocBigEndian       = TocFlag(1 << 6)
	TocDAQmxRawData    = TocFlag(1 << 7)
)

func (m TocMask) Has(flag TocFlag) bool {
	return uint32(m)&uint32(flag) == uint32(flag)
}

func (r ErrMalformedLeadIn) Error() string {
	return fmt.Sprintf("malformed lead-in at offset %d: %s", r.Offset, r.Reason)
}

func (r ErrTruncatedSegment) Error() string {
	return fmt.Sprintf(
		"truncated segment at offset %d: declared extent %d exceeds file length %d",
		r.Offset, r.Declared, r.FileLength,
	)
}
