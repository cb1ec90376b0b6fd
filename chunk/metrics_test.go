package chunk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftdcunwind/compress"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/record"
)

func serverStatus(i int) record.Document {
	return record.NewDocument(
		record.F(TimestampField, record.Time(t0.Add(time.Duration(i)*time.Second))),
		record.F("host", record.String("db1")),
		record.F("connections", record.Doc(record.NewDocument(
			record.F("current", record.Int64(int64(100+i%7))),
			record.F("available", record.Int64(int64(900-i%7))),
		))),
		record.F("opcounters", record.Doc(record.NewDocument(
			record.F("insert", record.Int64(int64(i*i))),
			record.F("query", record.Int64(int64(-i))),
		))),
		record.F("cpu", record.Float64(0.25+float64(i)/100)),
		record.F("primary", record.Bool(i%2 == 0)),
		record.F("repl", record.Null()),
		record.F("end", record.Time(t0.Add(time.Duration(i)*time.Second+500*time.Millisecond))),
	)
}

func serverStatuses(n int) []record.Document {
	out := make([]record.Document, n)
	for i := range out {
		out[i] = serverStatus(i)
	}

	return out
}

func TestMetrics_RoundTrip(t *testing.T) {
	compressions := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}

	for _, comp := range compressions {
		t.Run(comp.String(), func(t *testing.T) {
			enc, err := NewMetricsEncoder(WithCompression(comp))
			require.NoError(t, err)

			want := serverStatuses(50)
			for _, s := range want {
				require.NoError(t, enc.Add(s))
			}
			require.Equal(t, 50, enc.Len())

			data, err := enc.Finish()
			require.NoError(t, err)

			h, err := ParseHeader(data)
			require.NoError(t, err)
			require.Equal(t, comp, h.Compression)
			require.Equal(t, uint32(50), h.SampleCount)
			require.Equal(t, uint32(8), h.LeafCount)

			got, err := DecodeMetrics(data)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				require.True(t, want[i].Equal(got[i]), "sample %d: want %v, got %v", i, want[i], got[i])
			}
		})
	}
}

func TestMetrics_SpecialFloats(t *testing.T) {
	values := []float64{math.NaN(), math.Inf(1), math.Inf(-1), math.Copysign(0, -1), math.MaxFloat64, math.SmallestNonzeroFloat64}

	enc, err := NewMetricsEncoder(WithCompression(format.CompressionNone))
	require.NoError(t, err)
	for i, v := range values {
		require.NoError(t, enc.Add(record.NewDocument(
			record.F(TimestampField, record.Time(t0.Add(time.Duration(i)*time.Second))),
			record.F("v", record.Float64(v)),
		)))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	got, err := DecodeMetrics(data)
	require.NoError(t, err)
	for i, v := range values {
		require.True(t, record.Float64(v).Equal(got[i].Get("v")), "value %d", i)
	}
}

func TestMetricsEncoder_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name   string
		sample record.Document
	}{
		{"renamed field", serverStatus(1).Set("host", record.Missing()).Set("hostname", record.String("db1"))},
		{"changed kind", serverStatus(1).Set("cpu", record.Int64(1))},
		{"changed constant", serverStatus(1).Set("host", record.String("db2"))},
		{"extra field", serverStatus(1).Set("extra", record.Int64(1))},
		{"nested kind", serverStatus(1).Set("connections", record.Int64(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewMetricsEncoder()
			require.NoError(t, err)
			require.NoError(t, enc.Add(serverStatus(0)))

			err = enc.Add(tt.sample)
			require.ErrorIs(t, err, errs.ErrSchemaMismatch)
			require.Equal(t, 1, enc.Len())

			require.NoError(t, enc.Add(serverStatus(2)))
			data, err := enc.Finish()
			require.NoError(t, err)

			got, err := DecodeMetrics(data)
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.True(t, serverStatus(2).Equal(got[1]))
		})
	}
}

func TestMetricsEncoder_RejectsArrays(t *testing.T) {
	enc, err := NewMetricsEncoder()
	require.NoError(t, err)

	err = enc.Add(record.NewDocument(
		record.F(TimestampField, record.Time(t0)),
		record.F("members", record.Array(record.Int64(1))),
	))
	require.ErrorIs(t, err, errs.ErrUnsupportedKind)
	require.Equal(t, 0, enc.Len())
}

func TestMetricsEncoder_Capacity(t *testing.T) {
	enc, err := NewMetricsEncoder(WithMaxSamples(2))
	require.NoError(t, err)

	require.NoError(t, enc.Add(serverStatus(0)))
	require.False(t, enc.Full())
	require.NoError(t, enc.Add(serverStatus(1)))
	require.True(t, enc.Full())
	require.ErrorIs(t, enc.Add(serverStatus(2)), errs.ErrSampleCountExceeded)
}

func TestMetricsEncoder_Options(t *testing.T) {
	_, err := NewMetricsEncoder(WithMaxSamples(0))
	require.Error(t, err)

	_, err = NewMetricsEncoder(WithMaxSamples(MaxSamplesPerChunk + 1))
	require.Error(t, err)

	_, err = NewMetricsEncoder(WithCompression(format.CompressionType(99)))
	require.Error(t, err)
}

func TestMetricsEncoder_Finish(t *testing.T) {
	enc, err := NewMetricsEncoder()
	require.NoError(t, err)

	_, err = enc.Finish()
	require.ErrorIs(t, err, errs.ErrNoSamples)

	_, err = enc.Finish()
	require.Error(t, err)
	require.Error(t, enc.Add(serverStatus(0)))
}

func TestDecodeMetrics_Corrupted(t *testing.T) {
	enc, err := NewMetricsEncoder(WithCompression(format.CompressionNone))
	require.NoError(t, err)
	for _, s := range serverStatuses(10) {
		require.NoError(t, enc.Add(s))
	}
	data, err := enc.Finish()
	require.NoError(t, err)

	t.Run("truncated body", func(t *testing.T) {
		_, err := DecodeMetrics(data[:len(data)-3])
		require.ErrorIs(t, err, errs.ErrInvalidLength)
	})

	t.Run("short header", func(t *testing.T) {
		_, err := DecodeMetrics(data[:HeaderSize-1])
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("leaf count mismatch", func(t *testing.T) {
		h, err := ParseHeader(data)
		require.NoError(t, err)
		h.LeafCount++
		bad := append(h.Bytes(), data[HeaderSize:]...)

		_, err = DecodeMetrics(bad)
		require.ErrorIs(t, err, errs.ErrInvalidLength)
	})

	t.Run("sample count beyond columns", func(t *testing.T) {
		h, err := ParseHeader(data)
		require.NoError(t, err)
		h.SampleCount += 5
		bad := append(h.Bytes(), data[HeaderSize:]...)

		_, err = DecodeMetrics(bad)
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("corrupted zstd", func(t *testing.T) {
		h, err := ParseHeader(data)
		require.NoError(t, err)
		h.Compression = format.CompressionZstd
		bad := append(h.Bytes(), data[HeaderSize:]...)

		_, err = DecodeMetrics(bad)
		require.Error(t, err)
	})
}

// TestDecodeMetrics_ExpandsPastRawSize feeds bodies far larger than the
// header's raw size and expects them refused rather than inflated.
func TestDecodeMetrics_ExpandsPastRawSize(t *testing.T) {
	zeros := make([]byte, 8<<20)

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := compress.GetCodec(ct)
			require.NoError(t, err)
			body, err := codec.Compress(zeros)
			require.NoError(t, err)

			h := Header{Magic: MagicNumber, Version: Version, Compression: ct, SampleCount: 1, LeafCount: 1, RawSize: 100}
			_, err = DecodeMetrics(append(h.Bytes(), body...))
			require.ErrorIs(t, err, errs.ErrInvalidLength)
		})
	}
}

func TestEncodeSamples(t *testing.T) {
	samples := serverStatuses(7)
	// schema change at index 5
	samples[5] = samples[5].Set("extra", record.Float64(1))
	samples[6] = samples[6].Set("extra", record.Float64(2))

	chunks, err := EncodeSamples(samples, WithMaxSamples(3), WithCompression(format.CompressionS2))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	wantSizes := []int{3, 2, 2}
	wantFirst := []int{0, 3, 5}

	var all []record.Document
	for i, c := range chunks {
		require.Equal(t, format.ChunkMetrics, c.Type)
		require.True(t, t0.Add(time.Duration(wantFirst[i])*time.Second).Equal(c.ID), "chunk %d id", i)

		got, err := NewDecoder().Decode(c)
		require.NoError(t, err)
		require.Len(t, got, wantSizes[i])
		all = append(all, got...)
	}

	require.Len(t, all, len(samples))
	for i := range samples {
		require.True(t, samples[i].Equal(all[i]), "sample %d", i)
	}
}

func TestEncodeSamples_NeedsTimestamp(t *testing.T) {
	_, err := EncodeSamples([]record.Document{record.NewDocument(record.F("x", record.Int64(1)))})
	require.Error(t, err)

	chunks, err := EncodeSamples(nil)
	require.NoError(t, err)
	require.Empty(t, chunks)
}
