package compress

import (
	"fmt"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
)

// MaxDecompressedSize bounds the size a Decompressor restores.
const MaxDecompressedSize = 64 << 20

// Compressor compresses an encoded chunk body.
//
// The returned slice is owned by the caller; the input is not modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a chunk body compressed with the same algorithm.
//
// The caller passes the size the body had before compression. A payload
// expanding to any other size fails with errs.ErrInvalidLength, and no more
// than rawSize bytes are allocated for the output. Other errors mean the
// input is corrupted or was produced by a different algorithm.
type Decompressor interface {
	Decompress(data []byte, rawSize int) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the built-in Codec for the compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

func checkRawSize(rawSize int) error {
	if rawSize < 0 || rawSize > MaxDecompressedSize {
		return fmt.Errorf("%w: raw size %d outside [0, %d]", errs.ErrInvalidLength, rawSize, MaxDecompressedSize)
	}

	return nil
}

func sizeMismatch(got, want int) error {
	return fmt.Errorf("%w: payload expands to %d bytes, want %d", errs.ErrInvalidLength, got, want)
}

func sizeExceeded(want int) error {
	return fmt.Errorf("%w: payload expands past %d bytes", errs.ErrInvalidLength, want)
}
