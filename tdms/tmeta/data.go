package tmeta

import (
	"fmt"

	"go-tdms/ds"
	"go-tdms/tdms/tindex"
	"go-tdms/tdms/tvalue"
)

type (
	// Object is one entry of a segment's metadata block, with its raw-data
	// index already resolved against the registry.
	Object struct {
		Path   string
		Index  tindex.Index
		NoData bool
	}

	// ActiveChannel is one member of a segment's active channel list, in
	// chunking order. NoData members are skipped by the layout calculator
	// but keep their position for later segments.
	ActiveChannel struct {
		Path   string
		Index  tindex.Index
		NoData bool
	}

	// SegmentMeta is what one segment's metadata resolves to: the declared
	// objects in file order and the active channel list that governs raw
	// data chunking.
	SegmentMeta struct {
		Objects []Object
		Active  []ActiveChannel
	}

	// Properties is an object's resolved property map: last write wins per
	// name, first appearance orders.
	Properties = ds.LinkedHashMap[string, tvalue.Value]

	// ErrNoPreviousObject reports a "same as previous" index for a path with
	// no concrete layout on record. The format offers nothing to fall back
	// on, so this is a hard parse error.
	ErrNoPreviousObject struct {
		Path string
	}

	// ErrMalformedSegment reports metadata that cannot be resolved, e.g. an
	// inherited object list with no predecessor segment.
	ErrMalformedSegment struct {
		Reason string
	}
)

func (r ErrNoPreviousObject) Error() string {
	return fmt.Sprintf(
		`object "%s" reuses the previous raw data index, but no previous layout was recorded`,
		r.Path,
	)
}

func (r ErrMalformedSegment) Error() string {
	return fmt.Sprintf("malformed segment: %s", r.Reason)
}
