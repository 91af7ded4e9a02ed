package tlead

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"go-tdms/tdms/tbytes"
)

// Decode reads the 28-byte lead-in at the reader's position. The tag and
// TOC mask are always little endian; if the TOC carries the big-endian flag
// the reader's order is switched before the remaining fields, and stays
// switched for the rest of the segment.
func Decode(reader *tbytes.Reader) (*LeadIn, error) {
	start := reader.Pos()

	reader.SetOrder(binary.LittleEndian)
	tag, err := reader.ReadBytes(4)
	if err != nil {
		return nil, errors.Wrap(err, "Decode error: read lead-in tag")
	}
	if !bytes.Equal(tag, Tag) {
		return nil, ErrMalformedLeadIn{
			Offset: start,
			Reason: fmt.Sprintf(`expected tag "%s", got "% X"`, Tag, tag),
		}
	}

	tocRaw, err := reader.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(err, "Decode error: read TOC mask")
	}
	leadIn := LeadIn{Toc: TocMask(tocRaw)}

	if leadIn.Toc.Has(TocBigEndian) {
		reader.SetOrder(binary.BigEndian)
	}

	leadIn.Version, err = reader.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(err, "Decode error: read version")
	}
	leadIn.NextSegmentOffset, err = reader.ReadUint64()
	if err != nil {
		return nil, errors.Wrap(err, "Decode error: read next segment offset")
	}
	leadIn.RawDataOffset, err = reader.ReadUint64()
	if err != nil {
		return nil, errors.Wrap(err, "Decode error: read raw data offset")
	}

	return &leadIn, nil
}

// Ranges resolves the lead-in's relative offsets into absolute byte ranges.
// Both lead-in offsets count from the end of the lead-in. When the next
// segment offset is the unknown sentinel the segment end is clamped to the
// end of the file and the raw data length is whatever remains.
func (l *LeadIn) Ranges(start int64, fileLength int64) (Ranges, error) {
	dataStart := start + LeadInSize
	ranges := Ranges{SegmentStart: start}

	var segmentEnd int64
	if l.NextSegmentOffset == NextSegmentUnknown {
		ranges.Unfinalized = true
		segmentEnd = fileLength
	} else {
		segmentEnd = dataStart + int64(l.NextSegmentOffset)
		if segmentEnd > fileLength {
			return Ranges{}, ErrTruncatedSegment{
				Offset:     start,
				Declared:   l.NextSegmentOffset,
				FileLength: fileLength,
			}
		}
	}
	ranges.NextSegment = segmentEnd

	rawStart := dataStart + int64(l.RawDataOffset)
	if rawStart > segmentEnd {
		return Ranges{}, ErrTruncatedSegment{
			Offset:     start,
			Declared:   l.RawDataOffset,
			FileLength: fileLength,
		}
	}

	if l.Toc.Has(TocMetaData) {
		ranges.MetaStart = dataStart
		ranges.MetaLen = int64(l.RawDataOffset)
	}
	if l.Toc.Has(TocRawData) {
		ranges.RawStart = rawStart
		ranges.RawLen = segmentEnd - rawStart
	}

	return ranges, nil
}
