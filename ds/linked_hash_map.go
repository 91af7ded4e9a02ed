package ds

import (
	"bytes"
	"encoding/json"
)

// LinkedHashMap is a map that remembers insertion order for key listing and
// JSON serialization. TDMS metadata (object lists, property lists) is ordered
// on disk, and the order is significant for raw data chunking, so plain Go
// maps are not enough.
type LinkedHashMap[K comparable, V any] struct {
	values   map[K]V
	ordering []K
}

func NewLinkedHashMap[K comparable, V any]() *LinkedHashMap[K, V] {
	return &LinkedHashMap[K, V]{
		values:   map[K]V{},
		ordering: make([]K, 0),
	}
}

func (r *LinkedHashMap[K, V]) Len() int {
	return len(r.ordering)
}

func (r *LinkedHashMap[K, V]) Keys() []K {
	keys := make([]K, len(r.ordering))
	copy(keys, r.ordering)
	return keys
}

// Put inserts or overwrites a value. An overwritten key keeps its original
// position in the ordering, which is the "last write wins, first appearance
// orders" rule for repeated TDMS properties.
func (r *LinkedHashMap[K, V]) Put(key K, value V) {
	if _, existed := r.values[key]; !existed {
		r.ordering = append(r.ordering, key)
	}
	r.values[key] = value
}

func (r *LinkedHashMap[K, V]) Get(key K) (V, bool) {
	value, ok := r.values[key]
	return value, ok
}

// Each visits entries in insertion order.
func (r *LinkedHashMap[K, V]) Each(visit func(key K, value V)) {
	for _, key := range r.ordering {
		visit(key, r.values[key])
	}
}

func (r LinkedHashMap[K, V]) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0))

	buf.WriteRune('{')
	for i, key := range r.ordering {
		keyBs, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBs)

		buf.WriteRune(':')

		valueBs, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBs)

		if i != len(r.ordering)-1 {
			buf.WriteRune(',')
		}
	}
	buf.WriteRune('}')

	return buf.Bytes(), nil
}
