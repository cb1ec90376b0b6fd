package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ftdcunwind/compress"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
)

const (
	// HeaderSize is the fixed size of a metrics payload header.
	HeaderSize = 16
	// MagicNumber identifies a metrics payload.
	MagicNumber uint16 = 0xF7D0
	// Version is the payload layout version written by this package.
	Version uint8 = 1
	// MaxSamplesPerChunk bounds the sample count of one metrics chunk.
	MaxSamplesPerChunk = 1 << 16
	// MaxRawSize bounds the decompressed body of one metrics chunk.
	MaxRawSize = compress.MaxDecompressedSize
)

// Header is the fixed little-endian header in front of a metrics payload.
type Header struct {
	Magic       uint16                 // byte offset 0-1
	Version     uint8                  // byte offset 2
	Compression format.CompressionType // byte offset 3
	SampleCount uint32                 // byte offset 4-7
	LeafCount   uint32                 // byte offset 8-11
	RawSize     uint32                 // byte offset 12-15, body size before compression
}

// ParseHeader parses and validates the header at the front of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	h := Header{
		Magic:       binary.LittleEndian.Uint16(data[0:2]),
		Version:     data[2],
		Compression: format.CompressionType(data[3]),
		SampleCount: binary.LittleEndian.Uint32(data[4:8]),
		LeafCount:   binary.LittleEndian.Uint32(data[8:12]),
		RawSize:     binary.LittleEndian.Uint32(data[12:16]),
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Validate checks the magic number, version and size bounds.
func (h Header) Validate() error {
	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: 0x%04X", errs.ErrInvalidMagicNumber, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}
	if h.SampleCount == 0 {
		return errs.ErrNoSamples
	}
	if h.SampleCount > MaxSamplesPerChunk {
		return fmt.Errorf("%w: %d samples", errs.ErrSampleCountExceeded, h.SampleCount)
	}
	if h.RawSize > MaxRawSize {
		return fmt.Errorf("%w: raw size %d", errs.ErrInvalidLength, h.RawSize)
	}

	return nil
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, h.Magic)
	dst = append(dst, h.Version, byte(h.Compression))
	dst = binary.LittleEndian.AppendUint32(dst, h.SampleCount)
	dst = binary.LittleEndian.AppendUint32(dst, h.LeafCount)
	dst = binary.LittleEndian.AppendUint32(dst, h.RawSize)

	return dst
}
