package compress

// NoOpCompressor passes data through untouched.
//
// The returned slice shares memory with the input in both directions.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c NoOpCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if err := checkRawSize(rawSize); err != nil {
		return nil, err
	}
	if len(data) != rawSize {
		return nil, sizeMismatch(len(data), rawSize)
	}

	return data, nil
}
