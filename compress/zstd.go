package compress

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/arloliu/ftdcunwind/errs"
)

// ZstdCompressor is the Zstandard codec.
//
// It is the default for chunk files: diagnostic samples are highly repetitive
// and chunks are written once and read rarely, so ratio matters more than
// speed. The implementation is selected at build time: pure Go
// (klauspost/compress) by default, cgo libzstd (valyala/gozstd) with the
// gozstd build tag. Both produce standard zstd frames and interoperate.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// checkFrameSize rejects a frame whose header declares a content size other
// than rawSize, before any of it is decoded. Frames without a declared size
// are left to readExact.
func checkFrameSize(data []byte, rawSize int) error {
	var h zstd.Header
	if err := h.Decode(data); err != nil {
		return fmt.Errorf("zstd frame header: %w", err)
	}
	if h.HasFCS && h.FrameContentSize != uint64(rawSize) { //nolint:gosec
		return fmt.Errorf("%w: frame declares %d bytes, want %d", errs.ErrInvalidLength, h.FrameContentSize, rawSize)
	}

	return nil
}

// readExact reads exactly rawSize bytes from r and fails when r has more.
func readExact(r io.Reader, rawSize int) ([]byte, error) {
	buf := make([]byte, rawSize)
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, sizeMismatch(n, rawSize)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	var extra [1]byte
	_, err = io.ReadFull(r, extra[:])
	if err == nil {
		return nil, sizeExceeded(rawSize)
	}
	if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return buf, nil
}
