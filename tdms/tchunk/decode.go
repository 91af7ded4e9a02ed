package tchunk

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tvalue"
)

// Decoder walks a segment's raw-data region chunk by chunk and dispatches
// each channel's value run to the registered type decoder. Within a chunk
// the channels occupy disjoint byte ranges, so with parallelism > 1 the
// non-interleaved path decodes channels concurrently.
type Decoder struct {
	log         *zap.Logger
	parallelism int
}

func NewDecoder(log *zap.Logger, parallelism int) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Decoder{log: log, parallelism: parallelism}
}

// DecodeRegion decodes every channel of every chunk into the sink, chunk by
// chunk, channels in list order.
func (d *Decoder) DecodeRegion(reader *tbytes.Reader, rawStart int64, layout *Layout, sink *Sink) error {
	for chunk := int64(0); chunk < layout.ChunkCount; chunk++ {
		chunkStart := rawStart + chunk*layout.ChunkBytes
		d.log.Debug("chunk", zap.Int64("index", chunk), zap.Int64("start", chunkStart))

		runs, err := d.decodeChunk(reader, chunkStart, layout)
		if err != nil {
			return errors.Wrapf(err, "DecodeRegion error: chunk %d", chunk)
		}
		for i, channel := range layout.Channels {
			if err := sink.Append(channel.Path, runs[i]); err != nil {
				return errors.Wrapf(err, `DecodeRegion error: append chunk %d of "%s"`, chunk, channel.Path)
			}
		}
	}
	return nil
}

// DecodeChannel decodes a single channel's runs across all chunks of the
// region, leaving every other channel's bytes untouched.
func (d *Decoder) DecodeChannel(reader *tbytes.Reader, rawStart int64, layout *Layout, path string) (tvalue.Vector, error) {
	channel, ok := layout.Channel(path)
	if !ok {
		return tvalue.Vector{}, errors.Errorf(`DecodeChannel error: "%s" carries no data in this segment`, path)
	}

	vector := tvalue.Vector{}
	for chunk := int64(0); chunk < layout.ChunkCount; chunk++ {
		chunkStart := rawStart + chunk*layout.ChunkBytes
		run, err := d.decodeRun(reader, chunkStart, layout, channel)
		if err != nil {
			return tvalue.Vector{}, errors.Wrapf(err, `DecodeChannel error: chunk %d of "%s"`, chunk, path)
		}
		if err := vector.Extend(run); err != nil {
			return tvalue.Vector{}, err
		}
	}
	return vector, nil
}

// decodeChunk decodes one chunk's run for every channel, in channel order.
func (d *Decoder) decodeChunk(reader *tbytes.Reader, chunkStart int64, layout *Layout) ([]tvalue.Vector, error) {
	runs := make([]tvalue.Vector, len(layout.Channels))

	if d.parallelism > 1 && !layout.Interleaved {
		group := new(errgroup.Group)
		group.SetLimit(d.parallelism)
		for i, channel := range layout.Channels {
			i, channel := i, channel
			group.Go(func() error {
				run, err := d.decodeRun(reader, chunkStart, layout, channel)
				runs[i] = run
				return err
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		return runs, nil
	}

	for i, channel := range layout.Channels {
		run, err := d.decodeRun(reader, chunkStart, layout, channel)
		if err != nil {
			return nil, err
		}
		runs[i] = run
	}
	return runs, nil
}

// decodeRun decodes one channel's value run within one chunk.
func (d *Decoder) decodeRun(reader *tbytes.Reader, chunkStart int64, layout *Layout, channel Channel) (tvalue.Vector, error) {
	count := int(channel.Index.ValueCount)

	switch {
	case channel.Index.Kind == tindex.KindDaqmx:
		return d.decodeDaqmxRun(reader.At(chunkStart+channel.Offset), channel)
	case layout.Interleaved:
		return d.decodeInterleavedRun(reader, chunkStart, layout, channel)
	case channel.Index.DataType == tvalue.String:
		return tvalue.DecodeVector(reader.At(chunkStart+channel.Offset), tvalue.String, count, channel.Bytes)
	default:
		return tvalue.DecodeVector(reader.At(chunkStart+channel.Offset), channel.Index.DataType, count, 0)
	}
}

// decodeInterleavedRun reads one value per sample row at the channel's
// offset within the row.
func (d *Decoder) decodeInterleavedRun(reader *tbytes.Reader, chunkStart int64, layout *Layout, channel Channel) (tvalue.Vector, error) {
	vector := tvalue.Vector{}
	for row := int64(0); row < int64(channel.Index.ValueCount); row++ {
		at := chunkStart + row*layout.RowBytes + channel.Offset
		value, err := tvalue.DecodeVector(reader.At(at), channel.Index.DataType, 1, 0)
		if err != nil {
			return tvalue.Vector{}, errors.Wrapf(err, "row %d", row)
		}
		if err := vector.Extend(value); err != nil {
			return tvalue.Vector{}, err
		}
	}
	return vector, nil
}

// decodeDaqmxRun extracts the first scaler's byte window out of every
// sample row of the channel's composite buffer. The scaling formula from
// raw integers to engineering units is not implemented; the raw scaler
// integers are returned.
func (d *Decoder) decodeDaqmxRun(reader *tbytes.Reader, channel Channel) (tvalue.Vector, error) {
	info := channel.Index.Daqmx
	if info == nil || len(info.Scalers) == 0 {
		return tvalue.Vector{}, errors.Errorf(
			`decodeDaqmxRun error: channel "%s" has no scalers`, channel.Path,
		)
	}
	scaler := info.Scalers[0]
	rowWidth := info.RowWidth()
	base := reader.Pos()

	vector := tvalue.Vector{}
	for sample := int64(0); sample < int64(channel.Index.ValueCount); sample++ {
		at := base + sample*rowWidth + int64(scaler.RawByteOffset)
		value, err := tvalue.DecodeVector(reader.At(at), scaler.DataType, 1, 0)
		if err != nil {
			return tvalue.Vector{}, errors.Wrapf(err, "sample %d", sample)
		}
		if err := vector.Extend(value); err != nil {
			return tvalue.Vector{}, err
		}
	}
	return vector, nil
}
