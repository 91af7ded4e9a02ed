package tbytes

import (
	"encoding/binary"
)

type (
	// Source is the random-access byte provider a parse session reads from.
	// Implementations must support concurrent ReadExact calls so channel
	// decoding can be parallelized.
	Source interface {
		ReadExact(offset int64, length int) ([]byte, error)
		FileLength() (int64, error)
	}

	// Reader walks a Source with a cursor and a configurable byte order.
	// The order starts little endian; the lead-in decoder flips it when a
	// segment carries the big-endian TOC flag.
	Reader struct {
		source Source
		order  binary.ByteOrder
		pos    int64
	}
)
