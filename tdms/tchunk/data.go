package tchunk

import (
	"fmt"

	"go-tdms/ds"
	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tvalue"
)

type (
	// Channel is one data-carrying member of a chunk, with its resolved
	// per-chunk footprint and its byte offset inside the chunk (for
	// interleaved layouts the offset is within one sample row instead).
	Channel struct {
		Path  string
		Index tindex.Index
		// Width is the byte width of one value; zero for strings, whose
		// footprint is recorded rather than derived.
		Width int64
		// Bytes is the channel's total footprint in one chunk.
		Bytes  int64
		Offset int64
	}

	// Layout describes how one segment's raw-data region divides into
	// chunks and how each chunk divides between channels.
	Layout struct {
		Channels    []Channel
		Interleaved bool
		// RowBytes is the width of one interleaved sample row.
		RowBytes   int64
		ChunkBytes int64
		ChunkCount int64
	}

	// ErrPartialChunk reports a raw-data region whose length is not an even
	// multiple of the chunk size. The whole chunks before the surplus are
	// still well-formed; callers may decode them in recovery mode.
	ErrPartialChunk struct {
		SegmentIndex int
		Surplus      int64
		WholeChunks  int64
	}

	// ErrInterleavedUnsupported reports an interleaved segment whose channel
	// set has no defined byte layout: string-typed channels, or channels
	// with differing value counts. The format leaves these open, so the
	// parser refuses to guess.
	ErrInterleavedUnsupported struct {
		Path   string
		Reason string
	}

	// Sink accumulates decoded chunk vectors per channel path, in file
	// order.
	Sink struct {
		vectors *ds.LinkedHashMap[string, *tvalue.Vector]
	}
)

func (r ErrPartialChunk) Error() string {
	return fmt.Sprintf(
		"segment %d: raw data region leaves %d surplus bytes after %d whole chunks",
		r.SegmentIndex, r.Surplus, r.WholeChunks,
	)
}

func (r ErrInterleavedUnsupported) Error() string {
	return fmt.Sprintf(`channel "%s" cannot be interleaved: %s`, r.Path, r.Reason)
}

// Channel finds a layout member by path.
func (l *Layout) Channel(path string) (Channel, bool) {
	for _, channel := range l.Channels {
		if channel.Path == path {
			return channel, true
		}
	}
	return Channel{}, false
}

func NewSink() *Sink {
	return &Sink{
		vectors: ds.NewLinkedHashMap[string, *tvalue.Vector](),
	}
}

// Append extends the path's accumulated vector with one decoded chunk run.
func (s *Sink) Append(path string, chunk tvalue.Vector) error {
	vector, ok := s.vectors.Get(path)
	if !ok {
		vector = &tvalue.Vector{}
		s.vectors.Put(path, vector)
	}
	return vector.Extend(chunk)
}

// Vector returns the accumulated values for a path.
func (s *Sink) Vector(path string) (tvalue.Vector, bool) {
	vector, ok := s.vectors.Get(path)
	if !ok {
		return tvalue.Vector{}, false
	}
	return *vector, true
}

// Paths lists channels that received data, in first-appearance order.
func (s *Sink) Paths() []string {
	return s.vectors.Keys()
}
