package tvalue

import (
	"time"
)

// Timestamp is the raw on-disk timestamp: positive fractions of a second in
// 2^-64 units and whole seconds since the 1904-01-01T00:00:00Z epoch. The
// fractions field precedes the seconds field in the file.
type Timestamp struct {
	Fractions uint64 `json:"fractions"`
	Seconds   int64  `json:"seconds"`
}

var epoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// Time converts to a wall-clock time, rounding the 2^-64 second fractions
// down to nanoseconds.
func (t Timestamp) Time() time.Time {
	const fractionsPerSecond = 18446744073709551616.0 // 2^64
	nanos := int64(float64(t.Fractions) / fractionsPerSecond * 1e9)
	return epoch1904.Add(time.Duration(t.Seconds)*time.Second + time.Duration(nanos))
}

func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339Nano)
}
