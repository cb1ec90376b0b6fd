//go:build !gozstd || !cgo

package compress

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Decoders and encoders are designed to be reused after warm-up. A pooled
// instance is held by one caller at a time.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
			zstd.WithDecoderMaxMemory(MaxDecompressedSize),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

func (c ZstdCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if err := checkRawSize(rawSize); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		if rawSize != 0 {
			return nil, sizeMismatch(0, rawSize)
		}

		return nil, nil
	}
	if err := checkFrameSize(data, rawSize); err != nil {
		return nil, err
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer func() {
		// drop the input before pooling
		_ = decoder.Reset(nil)
		zstdDecoderPool.Put(decoder)
	}()

	// a bytes.Reader keeps the decoder streaming instead of decoding the
	// whole frame up front
	if err := decoder.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return readExact(decoder, rawSize)
}
