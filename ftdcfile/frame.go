package ftdcfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/internal/hash"
	"github.com/arloliu/ftdcunwind/record"
)

const (
	// FrameHeaderSize is the size of the length and checksum prefix.
	FrameHeaderSize = 12
	// MaxFrameSize bounds the body of a single frame.
	MaxFrameSize = 128 << 20
)

// AppendFrame appends the framed binary encoding of doc to dst.
func AppendFrame(dst []byte, doc record.Document) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, FrameHeaderSize)...)
	dst = record.AppendDocument(dst, doc)

	body := dst[start+FrameHeaderSize:]
	binary.LittleEndian.PutUint32(dst[start:], uint32(len(body))) //nolint:gosec
	binary.LittleEndian.PutUint64(dst[start+4:], hash.Checksum(body))

	return dst
}

// Reader reads frames sequentially.
//
// Note: The Reader is NOT thread-safe.
type Reader struct {
	r      *bufio.Reader
	header [FrameHeaderSize]byte
	body   []byte
	offset int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the byte offset of the next frame.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next returns the next chunk document, or io.EOF after the last complete
// frame. A partial frame fails with errs.ErrTruncated and a corrupted body
// with errs.ErrChecksumMismatch; errors of the underlying reader are
// returned as they are.
func (r *Reader) Next() (record.Document, error) {
	n, err := io.ReadFull(r.r, r.header[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return record.Document{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return record.Document{}, fmt.Errorf("%w: frame header at offset %d", errs.ErrTruncated, r.offset)
		}

		return record.Document{}, err
	}

	size := binary.LittleEndian.Uint32(r.header[0:4])
	sum := binary.LittleEndian.Uint64(r.header[4:12])
	if size > MaxFrameSize {
		return record.Document{}, fmt.Errorf("%w: frame of %d bytes at offset %d", errs.ErrInvalidLength, size, r.offset)
	}

	if cap(r.body) < int(size) {
		r.body = make([]byte, size)
	}
	body := r.body[:size]

	if _, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return record.Document{}, fmt.Errorf("%w: frame body at offset %d", errs.ErrTruncated, r.offset)
		}

		return record.Document{}, err
	}

	if !hash.Verify(body, sum) {
		return record.Document{}, fmt.Errorf("%w: frame at offset %d", errs.ErrChecksumMismatch, r.offset)
	}

	var doc record.Document
	if err := doc.UnmarshalBinary(body); err != nil {
		return record.Document{}, fmt.Errorf("frame at offset %d: %w", r.offset, err)
	}
	r.offset += int64(FrameHeaderSize) + int64(size)

	// binary payloads alias the reused body buffer
	return doc.Clone(), nil
}

// isCorruption reports whether err describes damaged file content rather
// than a failing filesystem.
func isCorruption(err error) bool {
	return errors.Is(err, errs.ErrTruncated) ||
		errors.Is(err, errs.ErrChecksumMismatch) ||
		errors.Is(err, errs.ErrInvalidLength) ||
		errors.Is(err, errs.ErrUnknownKind)
}
