package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/ftdcunwind/compress"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	ienc "github.com/arloliu/ftdcunwind/internal/encoding"
	"github.com/arloliu/ftdcunwind/internal/options"
	"github.com/arloliu/ftdcunwind/internal/pool"
	"github.com/arloliu/ftdcunwind/record"
)

// DefaultMaxSamples is the sample capacity of a metrics chunk unless
// configured otherwise.
const DefaultMaxSamples = 300

// MetricsEncoderConfig holds the encoder settings.
type MetricsEncoderConfig struct {
	compression format.CompressionType
	codec       compress.Codec
	maxSamples  int
}

// MetricsEncoderOption configures a MetricsEncoder.
type MetricsEncoderOption = options.Option[*MetricsEncoderConfig]

// WithCompression sets the body compression. The default is zstd.
func WithCompression(comp format.CompressionType) MetricsEncoderOption {
	return options.New(func(c *MetricsEncoderConfig) error {
		codec, err := compress.GetCodec(comp)
		if err != nil {
			return err
		}
		c.compression = comp
		c.codec = codec

		return nil
	})
}

// WithMaxSamples sets how many samples fit into one chunk, between 1 and
// MaxSamplesPerChunk.
func WithMaxSamples(n int) MetricsEncoderOption {
	return options.New(func(c *MetricsEncoderConfig) error {
		if n < 1 || n > MaxSamplesPerChunk {
			return fmt.Errorf("max samples %d out of range [1, %d]", n, MaxSamplesPerChunk)
		}
		c.maxSamples = n

		return nil
	})
}

// MetricsEncoder packs samples that share one schema into a metrics payload.
//
// Note: The MetricsEncoder is NOT thread-safe and NOT reusable. After Finish
// returns, create a new encoder for the next chunk.
type MetricsEncoder struct {
	*MetricsEncoderConfig

	ref     record.Document
	kinds   []record.Kind
	ints    []*ienc.DeltaEncoder
	floats  []*ienc.GorillaEncoder
	scratch []record.Value
	count   int
	done    bool
}

// NewMetricsEncoder creates an encoder.
func NewMetricsEncoder(opts ...MetricsEncoderOption) (*MetricsEncoder, error) {
	cfg := &MetricsEncoderConfig{
		compression: format.CompressionZstd,
		codec:       compress.NewZstdCompressor(),
		maxSamples:  DefaultMaxSamples,
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &MetricsEncoder{MetricsEncoderConfig: cfg}, nil
}

// Len returns the number of samples added.
func (e *MetricsEncoder) Len() int {
	return e.count
}

// Full reports whether the chunk reached its sample capacity.
func (e *MetricsEncoder) Full() bool {
	return e.count >= e.maxSamples
}

// Reference returns the first sample, or an empty document before Add.
func (e *MetricsEncoder) Reference() record.Document {
	return e.ref
}

// Add appends a sample.
//
// The first sample fixes the schema. A later sample whose shape differs
// fails with errs.ErrSchemaMismatch and leaves the encoder unchanged, so the
// caller can finish this chunk and start a new one with that sample.
func (e *MetricsEncoder) Add(sample record.Document) error {
	if e.done {
		return fmt.Errorf("encoder already finished")
	}
	if e.count >= e.maxSamples {
		return fmt.Errorf("%w: chunk holds %d samples", errs.ErrSampleCountExceeded, e.maxSamples)
	}

	if e.count == 0 {
		return e.start(sample)
	}

	leaves, err := flatten(e.scratch[:0], e.ref, sample, "")
	e.scratch = leaves
	if err != nil {
		return err
	}

	e.write(leaves)

	return nil
}

func (e *MetricsEncoder) start(sample record.Document) error {
	leaves, err := flatten(nil, sample, sample, "")
	if err != nil {
		return err
	}

	e.ref = sample
	e.kinds = make([]record.Kind, len(leaves))
	e.ints = make([]*ienc.DeltaEncoder, len(leaves))
	e.floats = make([]*ienc.GorillaEncoder, len(leaves))

	for i, leaf := range leaves {
		e.kinds[i] = leaf.Kind()
		if leaf.Kind() == record.KindFloat64 {
			e.floats[i] = ienc.NewGorillaEncoder()
		} else {
			e.ints[i] = ienc.NewDeltaEncoder()
		}
	}

	e.scratch = leaves
	e.write(leaves)

	return nil
}

func (e *MetricsEncoder) write(leaves []record.Value) {
	for i, leaf := range leaves {
		switch leaf.Kind() { //nolint:exhaustive
		case record.KindFloat64:
			f, _ := leaf.Float64()
			e.floats[i].Write(f)
		case record.KindTime:
			us, _ := leaf.TimeMicros()
			e.ints[i].Write(us)
		case record.KindBool:
			if b, _ := leaf.Bool(); b {
				e.ints[i].Write(1)
			} else {
				e.ints[i].Write(0)
			}
		default:
			v, _ := leaf.Int64()
			e.ints[i].Write(v)
		}
	}
	e.count++
}

// Finish assembles the payload and releases the column buffers.
func (e *MetricsEncoder) Finish() ([]byte, error) {
	if e.done {
		return nil, fmt.Errorf("encoder already finished")
	}
	e.done = true
	defer e.release()

	if e.count == 0 {
		return nil, errs.ErrNoSamples
	}

	body := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(body)

	body.B = record.AppendDocument(body.B, e.ref)
	for i := range e.kinds {
		var col []byte
		if e.floats[i] != nil {
			col = e.floats[i].Bytes()
		} else {
			col = e.ints[i].Bytes()
		}
		body.Grow(binary.MaxVarintLen64 + len(col))
		body.B = binary.AppendUvarint(body.B, uint64(len(col)))
		body.B = append(body.B, col...)
	}

	if body.Len() > MaxRawSize {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds %d", errs.ErrInvalidLength, body.Len(), MaxRawSize)
	}

	compressed, err := e.codec.Compress(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress metrics body: %w", err)
	}

	header := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: e.compression,
		SampleCount: uint32(e.count),     //nolint:gosec
		LeafCount:   uint32(len(e.kinds)), //nolint:gosec
		RawSize:     uint32(body.Len()),   //nolint:gosec
	}

	out := make([]byte, 0, HeaderSize+len(compressed))
	out = header.AppendTo(out)

	return append(out, compressed...), nil
}

func (e *MetricsEncoder) release() {
	for i := range e.kinds {
		if e.floats[i] != nil {
			e.floats[i].Finish()
		}
		if e.ints[i] != nil {
			e.ints[i].Finish()
		}
	}
}

