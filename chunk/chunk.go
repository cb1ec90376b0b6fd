package chunk

import (
	"fmt"
	"time"

	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/record"
)

// Field names of a chunk document and of decoded samples.
const (
	IDField   = "_id"
	TypeField = "type"
	DocField  = "doc"
	DataField = "data"

	// TimestampField is the mandatory time field of every sample.
	TimestampField = "start"
)

// Chunk is a classified chunk document.
type Chunk struct {
	// ID is the embedded chunk timestamp.
	ID time.Time
	// Type tells metadata and metrics chunks apart.
	Type format.ChunkType
	// Doc is the body of a metadata chunk.
	Doc record.Document
	// Data is the compressed payload of a metrics chunk.
	Data []byte
}

// NewMetadata builds a metadata chunk.
func NewMetadata(id time.Time, doc record.Document) Chunk {
	return Chunk{ID: id.UTC().Truncate(time.Microsecond), Type: format.ChunkMetadata, Doc: doc}
}

// NewMetrics builds a metrics chunk around an encoded payload.
func NewMetrics(id time.Time, data []byte) Chunk {
	return Chunk{ID: id.UTC().Truncate(time.Microsecond), Type: format.ChunkMetrics, Data: data}
}

// IsMetadata reports whether c is a metadata chunk.
func (c Chunk) IsMetadata() bool { return c.Type == format.ChunkMetadata }

// Document renders c as a chunk document.
func (c Chunk) Document() record.Document {
	fields := []record.Field{
		record.F(IDField, record.Time(c.ID)),
		record.F(TypeField, record.Int64(int64(c.Type))),
	}

	if c.Type == format.ChunkMetadata {
		fields = append(fields, record.F(DocField, record.Doc(c.Doc)))
	} else {
		fields = append(fields, record.F(DataField, record.Binary(c.Data)))
	}

	return record.NewDocument(fields...)
}

// Classify validates the shape of a chunk document and returns its view.
//
// It fails with errs.ErrNotChunk when "_id" is not a time or the payload
// field is missing or mistyped, and with errs.ErrUnknownChunkType for a type
// code other than metadata or metrics.
func Classify(doc record.Document) (Chunk, error) {
	id, ok := doc.Get(IDField).Time()
	if !ok {
		return Chunk{}, fmt.Errorf("%w: %q is %s, want date", errs.ErrNotChunk, IDField, doc.Get(IDField).Kind())
	}

	code, ok := doc.Get(TypeField).Int64()
	if !ok {
		return Chunk{}, fmt.Errorf("%w: %q is %s, want long", errs.ErrNotChunk, TypeField, doc.Get(TypeField).Kind())
	}

	if code != int64(format.ChunkMetadata) && code != int64(format.ChunkMetrics) {
		return Chunk{}, fmt.Errorf("%w: %d", errs.ErrUnknownChunkType, code)
	}

	if code == int64(format.ChunkMetadata) {
		body, ok := doc.Get(DocField).Document()
		if !ok {
			return Chunk{}, fmt.Errorf("%w: metadata chunk without %q document", errs.ErrNotChunk, DocField)
		}

		return Chunk{ID: id, Type: format.ChunkMetadata, Doc: body}, nil
	}

	data, ok := doc.Get(DataField).Binary()
	if !ok {
		return Chunk{}, fmt.Errorf("%w: metrics chunk without %q payload", errs.ErrNotChunk, DataField)
	}

	return Chunk{ID: id, Type: format.ChunkMetrics, Data: data}, nil
}
