package tbytes

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// BytesSource serves reads from an in-memory buffer.
type BytesSource struct {
	bs []byte
}

func NewBytesSource(bs []byte) *BytesSource {
	return &BytesSource{bs: bs}
}

func (r *BytesSource) ReadExact(offset int64, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	if offset < 0 || offset+int64(length) > int64(len(r.bs)) {
		return nil, errors.Wrapf(
			io.ErrUnexpectedEOF,
			"ReadExact error: %d bytes at offset %d with file length %d",
			length, offset, len(r.bs),
		)
	}
	out := make([]byte, length)
	copy(out, r.bs[offset:])
	return out, nil
}

func (r *BytesSource) FileLength() (int64, error) {
	return int64(len(r.bs)), nil
}

// FileSource serves reads from a file on disk via ReadAt, which keeps it
// safe for concurrent use.
type FileSource struct {
	file   *os.File
	length int64
}

func NewFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, `NewFileSource error: open "%s"`, path)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, `NewFileSource error: stat "%s"`, path)
	}
	return &FileSource{file: file, length: stat.Size()}, nil
}

func (r *FileSource) ReadExact(offset int64, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	out := make([]byte, length)
	if _, err := r.file.ReadAt(out, offset); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "ReadExact error: %d bytes at offset %d", length, offset)
	}
	return out, nil
}

func (r *FileSource) FileLength() (int64, error) {
	return r.length, nil
}

func (r *FileSource) Close() error {
	return r.file.Close()
}
