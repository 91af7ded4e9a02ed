package tmeta

import (
	"go-tdms/ds"
	"go-tdms/tdms/tindex"
)

// Registry maps object paths to their current concrete raw-data layout. It
// is scoped to one parse session and mutated only by metadata parsing, in
// segment order. Insertion order is kept so object listings match the file.
type Registry struct {
	entries *ds.LinkedHashMap[string, tindex.Index]
}

func NewRegistry() *Registry {
	return &Registry{
		entries: ds.NewLinkedHashMap[string, tindex.Index](),
	}
}

// Resolve applies one object's decoded index against the registry and
// returns the layout in force for this segment.
//
// A concrete index (fixed or DAQmx) becomes the path's new current entry.
// A "same as previous" index resolves to the current entry and fails with
// ErrNoPreviousObject when there is none. A "no data" index is returned
// as-is and deliberately NOT stored: the previous concrete layout stays the
// path's current entry so later "same as previous" references still resolve.
func (r *Registry) Resolve(path string, index tindex.Index) (tindex.Index, error) {
	switch index.Kind {
	case tindex.KindSamePrevious:
		previous, ok := r.entries.Get(path)
		if !ok {
			return tindex.Index{}, ErrNoPreviousObject{Path: path}
		}
		return previous, nil
	case tindex.KindNoData:
		return index, nil
	default:
		r.entries.Put(path, index)
		return index, nil
	}
}

// Lookup returns the path's current concrete layout, if any.
func (r *Registry) Lookup(path string) (tindex.Index, bool) {
	return r.entries.Get(path)
}

// Paths lists every path with a concrete layout, in first-appearance order.
func (r *Registry) Paths() []string {
	return r.entries.Keys()
}
