package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/internal/pool"
)

// DeltaEncoder encodes an int64 column with delta-of-delta compression.
//
// The first value is written as a zigzag varint, the second as the delta from
// the first, and every later value as the difference between consecutive
// deltas. Regular series (counters sampled every second, timestamps at a
// fixed interval) collapse to one byte per value.
type DeltaEncoder struct {
	prev      int64
	prevDelta int64
	count     int
	buf       *pool.ByteBuffer
}

// NewDeltaEncoder creates an encoder backed by a pooled buffer.
func NewDeltaEncoder() *DeltaEncoder {
	return &DeltaEncoder{buf: pool.GetChunkBuffer()}
}

// Write appends one value. Panics if Finish has been called.
func (e *DeltaEncoder) Write(v int64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	var enc int64
	switch e.count {
	case 0:
		enc = v
	case 1:
		enc = v - e.prev
		e.prevDelta = enc
	default:
		delta := v - e.prev
		enc = delta - e.prevDelta
		e.prevDelta = delta
	}

	e.prev = v
	e.count++
	e.buf.Grow(binary.MaxVarintLen64)
	e.buf.B = binary.AppendUvarint(e.buf.B, zigzag(enc))
}

// Bytes returns the encoded column. The slice is only valid until Finish.
func (e *DeltaEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of values written.
func (e *DeltaEncoder) Len() int {
	return e.count
}

// Finish releases the buffer to the pool.
func (e *DeltaEncoder) Finish() {
	if e.buf != nil {
		pool.PutChunkBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
	e.prev = 0
	e.prevDelta = 0
}

// DecodeDelta decodes count values from a column written by DeltaEncoder and
// appends them to dst.
func DecodeDelta(dst []int64, data []byte, count int) ([]int64, error) {
	offset := 0
	var cur, delta int64

	for i := range count {
		u, n := binary.Uvarint(data[offset:])
		if n <= 0 {
			return dst, fmt.Errorf("%w: delta column ends at value %d of %d", errs.ErrTruncated, i, count)
		}
		offset += n
		enc := unzigzag(u)

		switch i {
		case 0:
			cur = enc
		case 1:
			delta = enc
			cur += delta
		default:
			delta += enc
			cur += delta
		}

		dst = append(dst, cur)
	}

	if offset != len(data) {
		return dst, fmt.Errorf("%w: %d trailing bytes after delta column", errs.ErrInvalidLength, len(data)-offset)
	}

	return dst, nil
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}
