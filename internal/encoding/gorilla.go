package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/internal/pool"
)

// GorillaEncoder encodes a float64 column with Gorilla XOR compression.
//
// The first value is stored as 64 raw bits. Each later value is XORed with
// its predecessor: an unchanged value costs one 0 bit; otherwise a 1 bit is
// followed either by 0 and the meaningful bits inside the previous
// leading/trailing-zero window, or by 1, 5 bits of leading zeros, 6 bits of
// block size minus one, and the meaningful bits.
type GorillaEncoder struct {
	bitBuf       uint64
	bitCount     int
	prevValue    uint64
	prevLeading  int
	prevTrailing int
	haveBlock    bool
	count        int
	buf          *pool.ByteBuffer
}

// NewGorillaEncoder creates an encoder backed by a pooled buffer.
func NewGorillaEncoder() *GorillaEncoder {
	return &GorillaEncoder{buf: pool.GetChunkBuffer()}
}

// Write appends one value. Panics if Finish has been called.
func (e *GorillaEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write values after Finish()")
	}

	valBits := math.Float64bits(val)
	e.count++

	if e.count == 1 {
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBits(0, 1)
		return
	}

	e.writeBits(1, 1)

	// 5 bits hold at most 31 leading zeros; extra zeros stay inside the block.
	leading := min(bits.LeadingZeros64(xor), 31)
	trailing := bits.TrailingZeros64(xor)

	if e.haveBlock && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBits(0, 1)
		e.writeBits(xor>>e.prevTrailing, 64-e.prevLeading-e.prevTrailing)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBits(1, 1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.haveBlock = true
}

// Bytes flushes pending bits and returns the encoded column. Writing after
// Bytes is not supported. The slice is only valid until Finish.
func (e *GorillaEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}
	e.flushBits()

	return e.buf.Bytes()
}

// Len returns the number of values written.
func (e *GorillaEncoder) Len() int {
	return e.count
}

// Finish releases the buffer to the pool.
func (e *GorillaEncoder) Finish() {
	if e.buf != nil {
		pool.PutChunkBuffer(e.buf)
		e.buf = nil
	}
	*e = GorillaEncoder{}
}

func (e *GorillaEncoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}

	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		if numBits == 64 {
			e.bitBuf = value
		} else {
			e.bitBuf = (e.bitBuf << numBits) | value
		}
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	high := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> high)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << high) - 1)
	e.bitCount = high
}

// flushBits writes the pending bits left-aligned in big-endian order.
func (e *GorillaEncoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	aligned := e.bitBuf << (64 - e.bitCount)
	numBytes := (e.bitCount + 7) / 8

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], aligned)
	e.buf.Grow(numBytes)
	e.buf.B = append(e.buf.B, tmp[:numBytes]...)

	e.bitBuf = 0
	e.bitCount = 0
}

// DecodeGorilla decodes count values from a column written by GorillaEncoder
// and appends them to dst.
func DecodeGorilla(dst []float64, data []byte, count int) ([]float64, error) {
	if count == 0 {
		return dst, nil
	}

	br := bitReader{data: data}

	first, ok := br.readBits(64)
	if !ok {
		return dst, fmt.Errorf("%w: gorilla column has no first value", errs.ErrTruncated)
	}
	prev := first
	dst = append(dst, math.Float64frombits(prev))

	var trailing, blockSize int
	haveBlock := false

	for i := 1; i < count; i++ {
		changed, ok := br.readBits(1)
		if !ok {
			return dst, fmt.Errorf("%w: gorilla column ends at value %d of %d", errs.ErrTruncated, i, count)
		}

		if changed == 1 {
			newBlock, ok := br.readBits(1)
			if !ok {
				return dst, fmt.Errorf("%w: gorilla control bit at value %d", errs.ErrTruncated, i)
			}

			if newBlock == 1 {
				leading, ok1 := br.readBits(5)
				size, ok2 := br.readBits(6)
				if !ok1 || !ok2 {
					return dst, fmt.Errorf("%w: gorilla block header at value %d", errs.ErrTruncated, i)
				}
				blockSize = int(size) + 1 //nolint:gosec
				trailing = 64 - int(leading) - blockSize //nolint:gosec
				if trailing < 0 {
					return dst, fmt.Errorf("%w: gorilla block exceeds 64 bits at value %d", errs.ErrInvalidLength, i)
				}
				haveBlock = true
			} else if !haveBlock {
				return dst, fmt.Errorf("%w: gorilla block reuse before definition at value %d", errs.ErrInvalidLength, i)
			}

			meaningful, ok := br.readBits(blockSize)
			if !ok {
				return dst, fmt.Errorf("%w: gorilla meaningful bits at value %d", errs.ErrTruncated, i)
			}
			prev ^= meaningful << trailing
		}

		dst = append(dst, math.Float64frombits(prev))
	}

	return dst, nil
}

type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

// readBits reads numBits (1..64) most-significant-first.
func (br *bitReader) readBits(numBits int) (uint64, bool) {
	var result uint64

	for numBits > 0 {
		if br.bitCount == 0 && !br.fill() {
			return 0, false
		}

		n := min(numBits, br.bitCount)
		chunk := br.bitBuf >> (64 - n)
		if n == 64 {
			result = chunk
			br.bitBuf = 0
		} else {
			result = (result << n) | chunk
			br.bitBuf <<= n
		}
		br.bitCount -= n
		numBits -= n
	}

	return result, true
}

func (br *bitReader) fill() bool {
	remaining := len(br.data) - br.bytePos
	if remaining <= 0 {
		return false
	}

	if remaining >= 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos:])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for i := range remaining {
		br.bitBuf |= uint64(br.data[br.bytePos+i]) << (56 - 8*i)
	}
	br.bytePos += remaining
	br.bitCount = remaining * 8

	return true
}
