// Package tdms reads TDMS measurement-data containers: a sequence of
// segments, each a fixed lead-in, an optional metadata block describing
// objects and channels, and an optional raw-data block of chunked channel
// samples.
package tdms

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"go-tdms/tdms/tbytes"
	"go-tdms/tdms/tchunk"
	"go-tdms/tdms/tlead"
	"go-tdms/tdms/tmeta"
	"go-tdms/tdms/tvalue"
)

type (
	// File is one parse session over a byte source. Segment metadata is
	// mapped eagerly on open; raw channel data is decoded lazily on demand.
	// All cross-segment state (the object registry, the active channel
	// list) lives here, so separate files parse independently.
	File struct {
		source tbytes.Source
		closer io.Closer
		log    *zap.Logger

		keepPartial bool
		parallelism int

		meta     *tmeta.Parser
		plans    []plan
		warnings []Warning
		loaded   map[string]tvalue.Vector
		// loadWarned keeps repeated LoadAll calls from reporting the same
		// segment's decode failure more than once
		loadWarned map[int]bool
	}

	// SegmentInfo is the diagnostic view of one mapped segment.
	SegmentInfo struct {
		Index       int           `json:"index"`
		Start       int64         `json:"start"`
		Toc         tlead.TocMask `json:"toc"`
		Version     uint32        `json:"version"`
		RawStart    int64         `json:"raw_start"`
		RawLen      int64         `json:"raw_len"`
		ChunkCount  int64         `json:"chunk_count"`
		Unfinalized bool          `json:"unfinalized"`
	}

	// plan is a mapped segment ready for raw-data decoding.
	plan struct {
		info      SegmentInfo
		layout    *tchunk.Layout
		bigEndian bool
	}

	// Warning is a parse-time diagnostic scoped to one segment. Structural
	// errors abort parsing instead and never end up here.
	Warning struct {
		SegmentIndex int   `json:"segment_index"`
		Err          error `json:"error"`
	}

	// ErrChannelNotFound reports a path absent from the file's object list.
	ErrChannelNotFound struct {
		Path string
	}

	// ErrNoRawData reports an object that exists but never carried samples.
	ErrNoRawData struct {
		Path string
	}

	Option func(f *File)
)

func (r ErrChannelNotFound) Error() string {
	return fmt.Sprintf(`channel "%s" is not in the object list`, r.Path)
}

func (r ErrNoRawData) Error() string {
	return fmt.Sprintf(`object "%s" does not carry raw data`, r.Path)
}

// WithLogger installs a logger for per-segment debug tracing.
func WithLogger(log *zap.Logger) Option {
	return func(f *File) {
		if log != nil {
			f.log = log
		}
	}
}

// WithKeepPartial keeps all fully decoded chunks when a segment's raw-data
// region does not divide evenly, reporting the surplus as a warning instead
// of failing the parse.
func WithKeepPartial(keep bool) Option {
	return func(f *File) {
		f.keepPartial = keep
	}
}

// WithParallelism decodes up to n channels of a chunk concurrently. Only
// the non-interleaved path parallelizes; correctness never depends on it.
func WithParallelism(n int) Option {
	return func(f *File) {
		if n > 0 {
			f.parallelism = n
		}
	}
}
