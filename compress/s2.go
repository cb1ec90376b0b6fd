package compress

import "github.com/klauspost/compress/s2"

type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress reads the decoded length from the block preamble and refuses
// blocks that do not match rawSize before decoding.
func (c S2Compressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if err := checkRawSize(rawSize); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		if rawSize != 0 {
			return nil, sizeMismatch(0, rawSize)
		}

		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n != rawSize {
		return nil, sizeMismatch(n, rawSize)
	}

	return s2.Decode(make([]byte, rawSize), data)
}
