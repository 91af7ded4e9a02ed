package tdms

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"go-tdms/ds"
	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tchunk"
	"go-tdms/tdms/tlead"
	"go-tdms/tdms/tmeta"
	"go-tdms/tdms/tvalue"
)

// Open maps every segment of the file at path. Raw data is not decoded yet.
func Open(path string, options ...Option) (*File, error) {
	return OpenContext(context.Background(), path, options...)
}

// OpenContext is Open with cooperative cancellation between segments.
func OpenContext(ctx context.Context, path string, options ...Option) (*File, error) {
	source, err := tbytes.NewFileSource(path)
	if err != nil {
		return nil, err
	}
	file, err := newFile(ctx, source, options...)
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	file.closer = source
	return file, nil
}

// FromBytes maps every segment of an in-memory container.
func FromBytes(bs []byte, options ...Option) (*File, error) {
	return FromBytesContext(context.Background(), bs, options...)
}

func FromBytesContext(ctx context.Context, bs []byte, options ...Option) (*File, error) {
	return newFile(ctx, tbytes.NewBytesSource(bs), options...)
}

func newFile(ctx context.Context, source tbytes.Source, options ...Option) (*File, error) {
	file := File{
		source:      source,
		log:         zap.NewNop(),
		parallelism: 1,
		loaded:      map[string]tvalue.Vector{},
		loadWarned:  map[int]bool{},
	}
	for _, option := range options {
		option(&file)
	}
	file.meta = tmeta.NewParser(file.log)

	if err := file.mapSegments(ctx); err != nil {
		return nil, err
	}
	return &file, nil
}

// Close releases the byte source. Loading data after Close fails.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// mapSegments walks the file from offset 0, decoding each segment's lead-in
// and metadata and computing its chunk layout. Object registry mutation is
// strictly sequential here; raw data stays untouched so very large files
// map cheaply.
func (f *File) mapSegments(ctx context.Context) error {
	reader := tbytes.NewReader(f.source)
	fileLength, err := reader.FileLength()
	if err != nil {
		return errors.Wrap(err, "mapSegments error: file length")
	}

	offset := int64(0)
	for offset < fileLength {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := len(f.plans)
		segReader := reader.At(offset)
		leadIn, err := tlead.Decode(segReader)
		if err != nil {
			// A trailing partial lead-in means the writer died before it
			// could start the segment. Everything mapped so far is good.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				f.warnings = append(f.warnings, Warning{
					SegmentIndex: index,
					Err:          errors.Wrap(err, "final segment cut off inside its lead-in"),
				})
				return nil
			}
			return errors.Wrapf(err, "mapSegments error: segment %d at offset %d", index, offset)
		}

		ranges, err := leadIn.Ranges(offset, fileLength)
		if err != nil {
			return errors.Wrapf(err, "mapSegments error: segment %d", index)
		}

		f.log.Debug(
			"segment",
			zap.Int("index", index),
			zap.Int64("start", offset),
			zap.Uint32("toc", uint32(leadIn.Toc)),
			zap.Bool("unfinalized", ranges.Unfinalized),
		)

		var meta *tmeta.SegmentMeta
		if leadIn.Toc.Has(tlead.TocMetaData) {
			meta, err = f.meta.DecodeSegment(segReader, leadIn.Toc)
		} else {
			meta, err = f.meta.CarryOver()
		}
		if err != nil {
			return errors.Wrapf(err, "mapSegments error: segment %d", index)
		}

		var layout *tchunk.Layout
		if leadIn.Toc.Has(tlead.TocRawData) && ranges.RawLen > 0 {
			interleaved := leadIn.Toc.Has(tlead.TocInterleavedData)
			layout, err = tchunk.Calculate(index, meta.Active, interleaved, ranges.RawLen)
			if err != nil {
				var partial tchunk.ErrPartialChunk
				if !errors.As(err, &partial) || !f.keepPartial {
					return err
				}
				// recovery mode: the whole chunks stay available, the
				// surplus becomes a trailing diagnostic
				f.warnings = append(f.warnings, Warning{SegmentIndex: index, Err: err})
			}
		}

		f.plans = append(f.plans, plan{
			info: SegmentInfo{
				Index:       index,
				Start:       offset,
				Toc:         leadIn.Toc,
				Version:     leadIn.Version,
				RawStart:    ranges.RawStart,
				RawLen:      ranges.RawLen,
				ChunkCount:  chunkCount(layout),
				Unfinalized: ranges.Unfinalized,
			},
			layout:    layout,
			bigEndian: leadIn.Toc.Has(tlead.TocBigEndian),
		})

		offset = ranges.NextSegment
	}
	return nil
}

func chunkCount(layout *tchunk.Layout) int64 {
	if layout == nil {
		return 0
	}
	return layout.ChunkCount
}

// Paths lists every object in the file, in first-appearance order.
func (f *File) Paths() []string {
	return f.meta.Paths()
}

// DataPaths lists the objects that carry raw data, in first-appearance
// order.
func (f *File) DataPaths() []string {
	seen := ds.NewLinkedHashMap[string, struct{}]()
	for _, p := range f.plans {
		if p.layout == nil {
			continue
		}
		for _, channel := range p.layout.Channels {
			seen.Put(channel.Path, struct{}{})
		}
	}
	return seen.Keys()
}

// Properties returns an object's resolved property map.
func (f *File) Properties(path string) (*tmeta.Properties, error) {
	properties, ok := f.meta.Properties(path)
	if !ok {
		return nil, ErrChannelNotFound{Path: path}
	}
	return properties, nil
}

// Segments returns the diagnostic view of every mapped segment.
func (f *File) Segments() []SegmentInfo {
	infos := make([]SegmentInfo, len(f.plans))
	for i, p := range f.plans {
		infos[i] = p.info
	}
	return infos
}

// Warnings returns the parse-time diagnostics collected so far, keyed by
// segment index.
func (f *File) Warnings() []Warning {
	out := make([]Warning, len(f.warnings))
	copy(out, f.warnings)
	return out
}

// LoadVector decodes one channel's values across every segment and chunk
// that contributes to it, in file order. Results are cached per session.
func (f *File) LoadVector(path string) (tvalue.Vector, error) {
	if vector, ok := f.loaded[path]; ok {
		return vector, nil
	}

	vector := tvalue.Vector{}
	found := false
	reader := tbytes.NewReader(f.source)
	for _, p := range f.plans {
		if p.layout == nil {
			continue
		}
		if _, ok := p.layout.Channel(path); !ok {
			continue
		}
		found = true

		decoder := tchunk.NewDecoder(f.log, f.parallelism)
		run, err := decoder.DecodeChannel(f.segmentReader(reader, p), p.info.RawStart, p.layout, path)
		if err != nil {
			return tvalue.Vector{}, errors.Wrapf(err, "LoadVector error: segment %d", p.info.Index)
		}
		if err := vector.Extend(run); err != nil {
			return tvalue.Vector{}, err
		}
	}

	if !found {
		if _, ok := f.meta.Properties(path); ok {
			return tvalue.Vector{}, ErrNoRawData{Path: path}
		}
		return tvalue.Vector{}, ErrChannelNotFound{Path: path}
	}

	f.loaded[path] = vector
	return vector, nil
}

// LoadAll decodes every channel of every segment, segment by segment, and
// returns the accumulated vectors by path.
func (f *File) LoadAll() (map[string]tvalue.Vector, error) {
	return f.LoadAllContext(context.Background())
}

func (f *File) LoadAllContext(ctx context.Context) (map[string]tvalue.Vector, error) {
	sink := tchunk.NewSink()
	reader := tbytes.NewReader(f.source)

	for _, p := range f.plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.layout == nil {
			continue
		}

		decoder := tchunk.NewDecoder(f.log, f.parallelism)
		err := decoder.DecodeRegion(f.segmentReader(reader, p), p.info.RawStart, p.layout, sink)
		if err != nil {
			if !f.keepPartial {
				return nil, errors.Wrapf(err, "LoadAll error: segment %d", p.info.Index)
			}
			// keep everything decoded so far, report once and move on
			if !f.loadWarned[p.info.Index] {
				f.loadWarned[p.info.Index] = true
				f.warnings = append(f.warnings, Warning{SegmentIndex: p.info.Index, Err: err})
			}
		}
	}

	vectors := map[string]tvalue.Vector{}
	for _, path := range sink.Paths() {
		vector, _ := sink.Vector(path)
		vectors[path] = vector
		f.loaded[path] = vector
	}
	return vectors, nil
}

// segmentReader positions a reader's byte order for one segment's raw data.
func (f *File) segmentReader(reader *tbytes.Reader, p plan) *tbytes.Reader {
	out := reader.At(p.info.RawStart)
	if p.bigEndian {
		out.SetOrder(binary.BigEndian)
	} else {
		out.SetOrder(binary.LittleEndian)
	}
	return out
}
