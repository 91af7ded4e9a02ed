package tchunk

import (
	"github.com/pkg/errors"

	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tmeta"
	"go-tdms/tdms/tvalue"
)

// Calculate derives a segment's chunk layout from its active channel list.
// Channels marked "no data" this segment are skipped. When the raw-data
// region length is not an even multiple of the chunk size, the layout for
// the whole chunks is returned together with ErrPartialChunk so callers can
// decode in recovery mode.
func Calculate(segmentIndex int, active []tmeta.ActiveChannel, interleaved bool, rawLen int64) (*Layout, error) {
	layout := Layout{Interleaved: interleaved}

	for _, member := range active {
		if member.NoData || !member.Index.Concrete() {
			continue
		}
		channel, err := resolveChannel(member, interleaved)
		if err != nil {
			return nil, err
		}
		if interleaved && channel.Index.Kind != tindex.KindDaqmx {
			channel.Offset = layout.RowBytes
			layout.RowBytes += channel.Width
		} else {
			channel.Offset = layout.ChunkBytes
		}
		layout.ChunkBytes += channel.Bytes
		layout.Channels = append(layout.Channels, channel)
	}

	if interleaved {
		if err := checkInterleavedCounts(layout.Channels); err != nil {
			return nil, err
		}
	}

	if layout.ChunkBytes == 0 || rawLen == 0 {
		return &layout, nil
	}

	layout.ChunkCount = rawLen / layout.ChunkBytes
	if surplus := rawLen % layout.ChunkBytes; surplus != 0 {
		return &layout, ErrPartialChunk{
			SegmentIndex: segmentIndex,
			Surplus:      surplus,
			WholeChunks:  layout.ChunkCount,
		}
	}
	return &layout, nil
}

func resolveChannel(member tmeta.ActiveChannel, interleaved bool) (Channel, error) {
	channel := Channel{Path: member.Path, Index: member.Index}

	switch member.Index.Kind {
	case tindex.KindDaqmx:
		// DAQmx composite buffers have an explicit per-sample layout and sit
		// in the chunk as one contiguous block regardless of the interleave
		// flag.
		channel.Width = member.Index.Daqmx.RowWidth()
		channel.Bytes = int64(member.Index.TotalBytes)
	case tindex.KindFixed:
		if member.Index.DataType == tvalue.String {
			if interleaved {
				return Channel{}, ErrInterleavedUnsupported{
					Path:   member.Path,
					Reason: "string channels have no defined interleaved layout",
				}
			}
			channel.Bytes = int64(member.Index.TotalBytes)
			return channel, nil
		}
		width, err := member.Index.DataType.Size()
		if err != nil {
			return Channel{}, err
		}
		channel.Width = width
		channel.Bytes = width * int64(member.Index.ValueCount)
	default:
		return Channel{}, errors.Errorf(
			`resolveChannel error: channel "%s" has no concrete layout`, member.Path,
		)
	}

	return channel, nil
}

func checkInterleavedCounts(channels []Channel) error {
	daqmxCount := 0
	for _, channel := range channels {
		if channel.Index.Kind == tindex.KindDaqmx {
			daqmxCount++
		}
	}
	if daqmxCount > 0 && daqmxCount != len(channels) {
		return ErrInterleavedUnsupported{
			Path:   channels[0].Path,
			Reason: "a chunk cannot mix DAQmx composite buffers with interleaved channels",
		}
	}

	count := uint64(0)
	seen := false
	for _, channel := range channels {
		if channel.Index.Kind == tindex.KindDaqmx {
			continue
		}
		if !seen {
			count = channel.Index.ValueCount
			seen = true
			continue
		}
		if channel.Index.ValueCount != count {
			return ErrInterleavedUnsupported{
				Path: channel.Path,
				Reason: errors.Errorf(
					"value count %d differs from the chunk's %d",
					channel.Index.ValueCount, count,
				).Error(),
			}
		}
	}
	return nil
}
