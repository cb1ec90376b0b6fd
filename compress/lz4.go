package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// Leading marker byte of an LZ4 payload.
const (
	lz4Stored byte = 0x0
	lz4Block  byte = 0x1
)

type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 block codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}

	// CompressBlock reports incompressible input with n == 0.
	if n == 0 {
		stored := make([]byte, 1+len(data))
		stored[0] = lz4Stored
		copy(stored[1:], data)

		return stored, nil
	}

	dst[0] = lz4Block

	return dst[:1+n], nil
}

// Decompress restores an LZ4 block into a buffer of exactly rawSize bytes.
// The block format does not record the original size, so a block that needs
// more room fails instead of growing the buffer.
func (c LZ4Compressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if err := checkRawSize(rawSize); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		if rawSize != 0 {
			return nil, sizeMismatch(0, rawSize)
		}

		return nil, nil
	}

	marker, block := data[0], data[1:]
	switch marker {
	case lz4Stored:
		if len(block) != rawSize {
			return nil, sizeMismatch(len(block), rawSize)
		}

		return append([]byte(nil), block...), nil
	case lz4Block:
	default:
		return nil, fmt.Errorf("lz4: invalid payload marker 0x%x", marker)
	}

	buf := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(block, buf)
	if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
		return nil, sizeExceeded(rawSize)
	}
	if err != nil {
		return nil, err
	}
	if n != rawSize {
		return nil, sizeMismatch(n, rawSize)
	}

	return buf, nil
}
