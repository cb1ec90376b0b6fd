//go:build gozstd && cgo

package compress

import (
	"bytes"

	"github.com/valyala/gozstd"
)

const gozstdLevel = 3

func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, gozstdLevel), nil
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

	zr := gozstd.NewReader(bytes.NewReader(data))
	defer zr.Release()

	return readExact(zr, rawSize)
}
