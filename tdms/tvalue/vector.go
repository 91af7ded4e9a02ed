package tvalue

import (
	"encoding/json"

	"github.com/pkg/errors"

	"go-tdms/ds"
)

type (
	// Vector is a growable, type-tagged sequence of decoded values for one
	// channel, accumulated in file order across every segment and chunk that
	// contributes data to that channel.
	Vector struct {
		Type DataType
		data any
	}
)

func (v Vector) Len() int {
	switch data := v.data.(type) {
	case nil:
		return 0
	case []int8:
		return len(data)
	case []int16:
		return len(data)
	case []int32:
		return len(data)
	case []int64:
		return len(data)
	case []uint8:
		return len(data)
	case []uint16:
		return len(data)
	case []uint32:
		return len(data)
	case []uint64:
		return len(data)
	case []float32:
		return len(data)
	case []float64:
		return len(data)
	case []bool:
		return len(data)
	case []string:
		return len(data)
	case []complex64:
		return len(data)
	case []complex128:
		return len(data)
	case []Timestamp:
		return len(data)
	}
	panic(ds.ErrUnreachableCode{Caller: "Vector.Len"})
}

// Values exposes the underlying typed slice, one of []int8 ... []Timestamp
// matching the vector's data type. Callers must not mutate it.
func (v Vector) Values() any {
	return v.data
}

// Extend appends another vector of the same type, in order. The decoder
// calls this once per contributing chunk.
func (v *Vector) Extend(w Vector) error {
	if v.data == nil {
		v.Type = w.Type
		v.data = w.data
		return nil
	}
	if v.Type != w.Type {
		return errors.Errorf(
			`Vector.Extend error: cannot append values of type "%s" to a vector of type "%s"`,
			w.Type, v.Type,
		)
	}
	switch data := v.data.(type) {
	case []int8:
		v.data = append(data, w.data.([]int8)...)
	case []int16:
		v.data = append(data, w.data.([]int16)...)
	case []int32:
		v.data = append(data, w.data.([]int32)...)
	case []int64:
		v.data = append(data, w.data.([]int64)...)
	case []uint8:
		v.data = append(data, w.data.([]uint8)...)
	case []uint16:
		v.data = append(data, w.data.([]uint16)...)
	case []uint32:
		v.data = append(data, w.data.([]uint32)...)
	case []uint64:
		v.data = append(data, w.data.([]uint64)...)
	case []float32:
		v.data = append(data, w.data.([]float32)...)
	case []float64:
		v.data = append(data, w.data.([]float64)...)
	case []bool:
		v.data = append(data, w.data.([]bool)...)
	case []string:
		v.data = append(data, w.data.([]string)...)
	case []complex64:
		v.data = append(data, w.data.([]complex64)...)
	case []complex128:
		v.data = append(data, w.data.([]complex128)...)
	case []Timestamp:
		v.data = append(data, w.data.([]Timestamp)...)
	default:
		return ds.ErrUnreachableCode{Caller: "Vector.Extend"}
	}
	return nil
}

// Float64s widens any numeric vector to float64 for presentation consumers
// (plotting wants one numeric type). Booleans map to 0/1. String, timestamp
// and complex vectors do not widen.
func (v Vector) Float64s() ([]float64, error) {
	switch data := v.data.(type) {
	case nil:
		return []float64{}, nil
	case []float64:
		return data, nil
	case []int8:
		return widen(data, func(x int8) float64 { return float64(x) }), nil
	case []int16:
		return widen(data, func(x int16) float64 { return float64(x) }), nil
	case []int32:
		return widen(data, func(x int32) float64 { return float64(x) }), nil
	case []int64:
		return widen(data, func(x int64) float64 { return float64(x) }), nil
	case []uint8:
		return widen(data, func(x uint8) float64 { return float64(x) }), nil
	case []uint16:
		return widen(data, func(x uint16) float64 { return float64(x) }), nil
	case []uint32:
		return widen(data, func(x uint32) float64 { return float64(x) }), nil
	case []uint64:
		return widen(data, func(x uint64) float64 { return float64(x) }), nil
	case []float32:
		return widen(data, func(x float32) float64 { return float64(x) }), nil
	case []bool:
		return widen(data, func(x bool) float64 {
			if x {
				return 1.0
			}
			return 0.0
		}), nil
	}
	return nil, errors.Errorf(`Vector.Float64s error: type "%s" has no float64 representation`, v.Type)
}

func widen[T any](in []T, convert func(T) float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = convert(x)
	}
	return out
}

func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Values any    `json:"values"`
	}{
		Type:   v.Type.String(),
		Values: v.data,
	})
}
