package chunk

import (
	"fmt"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/record"
)

// Decoder classifies chunk documents and expands chunks into samples.
//
// Decode is expected to be deterministic: the same chunk always yields the
// same samples, ordered by non-decreasing TimestampField.
type Decoder interface {
	Classify(doc record.Document) (Chunk, error)
	Decode(c Chunk) ([]record.Document, error)
}

// FTDCDecoder is the Decoder for chunks written by this module.
type FTDCDecoder struct{}

// NewDecoder returns the default Decoder.
func NewDecoder() FTDCDecoder {
	return FTDCDecoder{}
}

// Classify implements Decoder.
func (FTDCDecoder) Classify(doc record.Document) (Chunk, error) {
	return Classify(doc)
}

// Decode implements Decoder. A metadata chunk yields its document as the
// only sample, stamped with the chunk timestamp unless it already carries
// TimestampField.
func (FTDCDecoder) Decode(c Chunk) ([]record.Document, error) {
	switch c.Type {
	case format.ChunkMetadata:
		sample := c.Doc
		if sample.Get(TimestampField).IsMissing() {
			sample = sample.Set(TimestampField, record.Time(c.ID))
		}

		return []record.Document{sample}, nil
	case format.ChunkMetrics:
		return DecodeMetrics(c.Data)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownChunkType, c.Type)
	}
}
