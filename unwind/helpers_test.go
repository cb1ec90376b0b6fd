package unwind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/record"
)

var base = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

func sample(i int) record.Document {
	return record.NewDocument(
		record.F(chunk.TimestampField, record.Time(at(i))),
		record.F("connections", record.Doc(record.NewDocument(
			record.F("current", record.Int64(int64(100+i))),
		))),
		record.F("cpu", record.Float64(float64(i)/10)),
	)
}

// metricsChunk encodes the samples first..first+n-1 into one chunk.
func metricsChunk(t *testing.T, first, n int) chunk.Chunk {
	t.Helper()

	samples := make([]record.Document, n)
	for i := range samples {
		samples[i] = sample(first + i)
	}

	chunks, err := chunk.EncodeSamples(samples, chunk.WithCompression(format.CompressionS2))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	return chunks[0]
}

func metadataChunk(sec int) chunk.Chunk {
	return chunk.NewMetadata(at(sec), record.NewDocument(record.F("host", record.String("db1"))))
}

// fakeDecoder counts calls and can be told to fail or return nothing.
type fakeDecoder struct {
	inner      chunk.Decoder
	classifies int
	decodes    int
	failWith   error
	empty      bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{inner: chunk.NewDecoder()}
}

func (d *fakeDecoder) Classify(doc record.Document) (chunk.Chunk, error) {
	d.classifies++
	return d.inner.Classify(doc)
}

func (d *fakeDecoder) Decode(c chunk.Chunk) ([]record.Document, error) {
	d.decodes++
	if d.failWith != nil {
		return nil, d.failWith
	}
	if d.empty {
		return nil, nil
	}

	return d.inner.Decode(c)
}

// drain calls Next until the end of the unit and returns the outputs.
func drain(t *testing.T, u *Unwinder) []record.Document {
	t.Helper()

	var out []record.Document
	for range 10_000 {
		doc, ok, err := u.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, doc)
	}
	require.FailNow(t, "unwinder did not reach the end of the unit")

	return nil
}

func startOf(t *testing.T, doc record.Document) time.Time {
	t.Helper()

	ts, ok := doc.Get(chunk.TimestampField).Time()
	require.True(t, ok, "no timestamp in %v", doc)

	return ts
}
