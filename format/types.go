package format

import (
	"fmt"
	"strings"
)

type (
	ChunkType       uint8
	EncodingType    uint8
	CompressionType uint8
)

const (
	ChunkMetadata ChunkType = 0 // ChunkMetadata is a chunk holding one metadata document.
	ChunkMetrics  ChunkType = 1 // ChunkMetrics is a chunk holding compressed samples.

	TypeDelta   EncodingType = 0x2 // TypeDelta represents delta-of-delta encoding.
	TypeGorilla EncodingType = 0x3 // TypeGorilla represents Gorilla encoding.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c ChunkType) String() string {
	switch c {
	case ChunkMetadata:
		return "Metadata"
	case ChunkMetrics:
		return "Metrics"
	default:
		return "Unknown"
	}
}

func (e EncodingType) String() string {
	switch e {
	case TypeDelta:
		return "Delta"
	case TypeGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-insensitive name ("none", "zstd", "s2", "lz4")
// to its CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
