package tbytes

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

func NewReader(source Source) *Reader {
	return &Reader{
		source: source,
		order:  binary.LittleEndian,
		pos:    0,
	}
}

// At returns a new reader over the same source positioned at offset,
// keeping the current byte order. The shared source makes the clones safe
// to use from different goroutines.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{
		source: r.source,
		order:  r.order,
		pos:    offset,
	}
}

func (r *Reader) SetOrder(order binary.ByteOrder) {
	r.order = order
}

func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

func (r *Reader) Pos() int64 {
	return r.pos
}

func (r *Reader) FileLength() (int64, error) {
	return r.source.FileLength()
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	// return early to avoid a pointless source round trip when an empty
	// value run is read at the end of a region
	if n == 0 {
		return []byte{}, nil
	}
	bs, err := r.source.ReadExact(r.pos, n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return bs, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	bs, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	bs, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(bs), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	bs, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(bs), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	bs, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(bs), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	result, err := r.ReadUint32()
	return int32(result), err
}

func (r *Reader) ReadInt64() (int64, error) {
	result, err := r.ReadUint64()
	return int64(result), err
}

// ReadString reads a TDMS string: a uint32 byte length followed by UTF-8
// bytes. Object paths, property names and string property values all use
// this shape.
func (r *Reader) ReadString() (string, error) {
	strLen, err := r.ReadUint32()
	if err != nil {
		return "", errors.Wrap(err, "ReadString error: read length prefix")
	}
	bs, err := r.ReadBytes(int(strLen))
	if err != nil {
		return "", errors.Wrapf(err, "ReadString error: read %d content bytes", strLen)
	}
	return string(bs), nil
}
