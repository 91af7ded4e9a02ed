package tlead

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tdms/tdms/tbytes"
)

func leadInBytes(toc uint32, version uint32, nextSegment uint64, rawData uint64) []byte {
	bs := make([]byte, LeadInSize)
	copy(bs, Tag)
	binary.LittleEndian.PutUint32(bs[4:], toc)
	order := binary.ByteOrder(binary.LittleEndian)
	if TocMask(toc).Has(TocBigEndian) {
		order = binary.BigEndian
	}
	order.PutUint32(bs[8:], version)
	order.PutUint64(bs[12:], nextSegment)
	order.PutUint64(bs[20:], rawData)
	return bs
}

func TestDecode(t *testing.T) {
	toc := uint32(TocMetaData) | uint32(TocRawData)
	reader := tbytes.NewReader(tbytes.NewBytesSource(
		leadInBytes(toc, 4713, 64, 32),
	))

	leadIn, err := Decode(reader)
	require.NoError(t, err)
	assert.Equal(t, TocMask(toc), leadIn.Toc)
	assert.Equal(t, uint32(4713), leadIn.Version)
	assert.Equal(t, uint64(64), leadIn.NextSegmentOffset)
	assert.Equal(t, uint64(32), leadIn.RawDataOffset)
	assert.Equal(t, int64(LeadInSize), reader.Pos())
}

func TestDecode_BadTag(t *testing.T) {
	bs := leadInBytes(0, 4713, 0, 0)
	copy(bs, "TDSh")
	reader := tbytes.NewReader(tbytes.NewBytesSource(bs))

	_, err := Decode(reader)
	malformed := ErrMalformedLeadIn{}
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, int64(0), malformed.Offset)
}

func TestDecode_BigEndian(t *testing.T) {
	toc := uint32(TocBigEndian) | uint32(TocMetaData)
	reader := tbytes.NewReader(tbytes.NewBytesSource(
		leadInBytes(toc, 4713, 100, 40),
	))

	leadIn, err := Decode(reader)
	require.NoError(t, err)
	assert.Equal(t, uint32(4713), leadIn.Version)
	assert.Equal(t, uint64(100), leadIn.NextSegmentOffset)
	// the reader keeps the segment's order for the metadata that follows
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), reader.Order())
}

func TestRanges(t *testing.T) {
	leadIn := LeadIn{
		Toc:               TocMask(uint32(TocMetaData) | uint32(TocRawData)),
		NextSegmentOffset: 64,
		RawDataOffset:     32,
	}

	ranges, err := leadIn.Ranges(100, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ranges.SegmentStart)
	assert.Equal(t, int64(128), ranges.MetaStart)
	assert.Equal(t, int64(32), ranges.MetaLen)
	assert.Equal(t, int64(160), ranges.RawStart)
	assert.Equal(t, int64(32), ranges.RawLen)
	assert.Equal(t, int64(192), ranges.NextSegment)
	assert.False(t, ranges.Unfinalized)
}

func TestRanges_UnfinalizedClampsToFileEnd(t *testing.T) {
	leadIn := LeadIn{
		Toc:               TocMask(uint32(TocMetaData) | uint32(TocRawData)),
		NextSegmentOffset: NextSegmentUnknown,
		RawDataOffset:     32,
	}

	ranges, err := leadIn.Ranges(0, 200)
	require.NoError(t, err)
	assert.True(t, ranges.Unfinalized)
	assert.Equal(t, int64(200), ranges.NextSegment)
	assert.Equal(t, int64(60), ranges.RawStart)
	assert.Equal(t, int64(140), ranges.RawLen)
}

func TestRanges_Truncated(t *testing.T) {
	leadIn := LeadIn{
		NextSegmentOffset: 1000,
	}

	_, err := leadIn.Ranges(0, 100)
	truncated := ErrTruncatedSegment{}
	require.True(t, errors.As(err, &truncated))
	assert.Equal(t, uint64(1000), truncated.Declared)
	assert.Equal(t, int64(100), truncated.FileLength)
}

func TestRanges_RawStartPastSegmentEnd(t *testing.T) {
	leadIn := LeadIn{
		NextSegmentOffset: 10,
		RawDataOffset:     20,
	}

	_, err := leadIn.Ranges(0, 100)
	truncated := ErrTruncatedSegment{}
	assert.True(t, errors.As(err, &truncated))
}

func TestTocMask_Has(t *testing.T) {
	mask := TocMask(uint32(TocMetaData) | uint32(TocNewObjList))
	assert.True(t, mask.Has(TocMetaData))
	assert.True(t, mask.Has(TocNewObjList))
	assert.False(t, mask.Has(TocRawData))
	assert.False(t, mask.Has(TocBigEndian))
}
