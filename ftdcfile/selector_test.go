package ftdcfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/record"
)

const diagDir = "/diag"

var (
	t0 = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	t1 = t0.Add(10 * time.Minute)
	t2 = t0.Add(20 * time.Minute)
	t3 = t0.Add(30 * time.Minute)
)

// writeRotation writes one file per timestamp, each holding a metadata
// chunk followed by ten metrics chunks one minute apart.
func writeRotation(t *testing.T, fs afero.Fs, stamps ...time.Time) {
	t.Helper()

	for _, ts := range stamps {
		w, err := NewWriter(fs, diagDir)
		require.NoError(t, err)

		meta := record.NewDocument(record.F("host", record.String("db1")))
		require.NoError(t, w.Write(chunk.NewMetadata(ts, meta)))
		for k := range 10 {
			require.NoError(t, w.Write(chunk.NewMetrics(ts.Add(time.Duration(k)*time.Minute), []byte{byte(k)})))
		}
		require.NoError(t, w.Close())
	}
}

// ids returns the chunk timestamps in unix microseconds and the chunk types.
func ids(t *testing.T, docs []record.Document) ([]int64, []format.ChunkType) {
	t.Helper()

	var (
		times []int64
		types []format.ChunkType
	)
	for _, doc := range docs {
		c, err := chunk.Classify(doc)
		require.NoError(t, err)
		times = append(times, c.ID.UnixMicro())
		types = append(types, c.Type)
	}

	return times, types
}

func TestSelector_SelectFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRotation(t, fs, t0, t1, t2, t3)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(diagDir, "metrics.interim"), []byte("junk"), 0o644))

	reg := prometheus.NewRegistry()
	metrics := NewSelectorMetrics(reg)
	s, err := NewSelector(fs, diagDir, WithMetrics(metrics))
	require.NoError(t, err)
	require.Equal(t, diagDir, s.Dir())

	names := func(files []FileInfo) []string {
		var out []string
		for _, f := range files {
			out = append(out, f.Name)
		}

		return out
	}

	tests := []struct {
		name       string
		start, end time.Time
		want       []string
	}{
		{
			name:  "window across one rotation",
			start: t1.Add(time.Second), end: t2.Add(time.Second),
			want: []string{FileName(t1, 0), FileName(t2, 0)},
		},
		{
			name:  "window inside one file",
			start: t1.Add(time.Minute), end: t1.Add(2 * time.Minute),
			want: []string{FileName(t1, 0)},
		},
		{
			name:  "start on a file boundary",
			start: t2, end: t2.Add(time.Minute),
			want: []string{FileName(t1, 0), FileName(t2, 0)},
		},
		{
			name:  "end on a file boundary",
			start: t1.Add(time.Minute), end: t2,
			want: []string{FileName(t1, 0)},
		},
		{
			name:  "window wider than rotation",
			start: t0.Add(5 * time.Minute), end: t3.Add(time.Second),
			want: []string{FileName(t0, 0), FileName(t1, 0), FileName(t2, 0), FileName(t3, 0)},
		},
		{
			name:  "before retained history",
			start: t0.Add(-time.Hour), end: t0.Add(-time.Minute),
			want: nil,
		},
		{
			name:  "overlapping the oldest file",
			start: t0.Add(-time.Minute), end: t0.Add(time.Minute),
			want: []string{FileName(t0, 0)},
		},
		{
			name:  "after the newest file",
			start: t3.Add(time.Hour), end: t3.Add(2 * time.Hour),
			want: []string{FileName(t3, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := s.SelectFiles(tt.start, tt.end)
			require.NoError(t, err)
			require.Equal(t, tt.want, names(files))
		})
	}

	require.Equal(t, float64(len(tests)), testutil.ToFloat64(metrics.filesSkipped))
	require.Equal(t, float64(12), testutil.ToFloat64(metrics.filesSelected))
}

func TestSelector_SameSecondFilesShareBoundary(t *testing.T) {
	fs := afero.NewMemMapFs()

	w, err := NewWriter(fs, diagDir, WithMaxFileSize(1))
	require.NoError(t, err)
	require.NoError(t, w.Write(chunk.NewMetrics(t1, []byte{1})))
	require.NoError(t, w.Write(chunk.NewMetrics(t1.Add(300*time.Millisecond), []byte{2})))
	require.NoError(t, w.Write(chunk.NewMetrics(t1.Add(600*time.Millisecond), []byte{3})))
	require.NoError(t, w.Close())

	s, err := NewSelector(fs, diagDir)
	require.NoError(t, err)

	files, err := s.SelectFiles(t1.Add(400*time.Millisecond), t1.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, files, 3)

	docs, err := s.Select(context.Background(), t1.Add(400*time.Millisecond), t1.Add(time.Minute))
	require.NoError(t, err)
	times, _ := ids(t, docs)
	require.Equal(t, []int64{t1.Add(300 * time.Millisecond).UnixMicro(), t1.Add(600 * time.Millisecond).UnixMicro()}, times)
}

func TestSelector_StartInsideFileSecond(t *testing.T) {
	fs := afero.NewMemMapFs()

	tick := func(i int) time.Time { return t1.Add(time.Duration(i) * 100 * time.Millisecond) }
	samples := make([]record.Document, 30)
	for i := range samples {
		samples[i] = record.NewDocument(
			record.F(chunk.TimestampField, record.Time(tick(i))),
			record.F("seq", record.Int64(int64(i))),
		)
	}

	chunks, err := chunk.EncodeSamples(samples, chunk.WithMaxSamples(15), chunk.WithCompression(format.CompressionLZ4))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	w, err := NewWriter(fs, diagDir, WithMaxFileSize(1))
	require.NoError(t, err)
	for _, c := range chunks {
		require.NoError(t, w.Write(c))
	}
	require.NoError(t, w.Close())
	require.Equal(t, []string{FileName(t1, 0), FileName(t1.Add(time.Second), 0)}, w.Files())

	s, err := NewSelector(fs, diagDir)
	require.NoError(t, err)

	// the second file is named 1s but starts at 1.5s
	start, end := tick(12), tick(20)
	files, err := s.SelectFiles(start, end)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, FileName(t1, 0), files[0].Name)
	require.Equal(t, FileName(t1.Add(time.Second), 0), files[1].Name)

	docs, err := s.Select(context.Background(), start, end)
	require.NoError(t, err)
	times, _ := ids(t, docs)
	require.Equal(t, []int64{tick(0).UnixMicro(), tick(15).UnixMicro()}, times)

	var got []int64
	for _, doc := range docs {
		c, err := chunk.Classify(doc)
		require.NoError(t, err)
		decoded, err := chunk.DecodeMetrics(c.Data)
		require.NoError(t, err)
		for _, sample := range decoded {
			ts, ok := sample.Get(chunk.TimestampField).Time()
			require.True(t, ok)
			if !ts.Before(start) && ts.Before(end) {
				seq, _ := sample.Get("seq").Int64()
				got = append(got, seq)
			}
		}
	}
	require.Equal(t, []int64{12, 13, 14, 15, 16, 17, 18, 19}, got)

	// a start in a later second needs only the second file
	files, err = s.SelectFiles(tick(25), tick(29))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, FileName(t1.Add(time.Second), 0), files[0].Name)
}

func TestSelector_Select(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRotation(t, fs, t0, t1, t2, t3)

	metrics := NewSelectorMetrics(prometheus.NewRegistry())
	s, err := NewSelector(fs, diagDir, WithMetrics(metrics))
	require.NoError(t, err)

	start, end := t1.Add(time.Second), t2.Add(time.Second)
	docs, err := s.Select(context.Background(), start, end)
	require.NoError(t, err)

	times, types := ids(t, docs)

	// straddling chunk, the rest of t1's file, then t2's first two chunks
	var wantTimes []int64
	var wantTypes []format.ChunkType
	for k := range 10 {
		wantTimes = append(wantTimes, t1.Add(time.Duration(k)*time.Minute).UnixMicro())
		wantTypes = append(wantTypes, format.ChunkMetrics)
	}
	wantTimes = append(wantTimes, t2.UnixMicro(), t2.UnixMicro())
	wantTypes = append(wantTypes, format.ChunkMetadata, format.ChunkMetrics)

	require.Equal(t, wantTimes, times)
	require.Equal(t, wantTypes, types)

	require.Equal(t, float64(11), testutil.ToFloat64(metrics.chunksPreloaded.WithLabelValues("Metrics")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.chunksPreloaded.WithLabelValues("Metadata")))
}

func TestSelector_SelectEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRotation(t, fs, t1)

	s, err := NewSelector(fs, diagDir)
	require.NoError(t, err)

	docs, err := s.Select(context.Background(), t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestSelector_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		s, err := NewSelector(afero.NewMemMapFs(), "/nowhere")
		require.NoError(t, err)

		_, err = s.Select(context.Background(), t0, t1)
		require.ErrorIs(t, err, errs.ErrIO)
	})

	t.Run("corrupted frame", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeRotation(t, fs, t0)

		path := filepath.Join(diagDir, FileName(t0, 0))
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		data[len(data)-1] ^= 0xFF
		require.NoError(t, afero.WriteFile(fs, path, data, 0o644))

		s, err := NewSelector(fs, diagDir)
		require.NoError(t, err)

		_, err = s.Select(context.Background(), t0, t1)
		require.ErrorIs(t, err, errs.ErrDecode)
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("unclassifiable chunk", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		data := AppendFrame(nil, record.NewDocument(record.F("hello", record.String("world"))))
		require.NoError(t, afero.WriteFile(fs, filepath.Join(diagDir, FileName(t0, 0)), data, 0o644))

		s, err := NewSelector(fs, diagDir)
		require.NoError(t, err)

		_, err = s.Select(context.Background(), t0, t1)
		require.ErrorIs(t, err, errs.ErrDecode)
		require.ErrorIs(t, err, errs.ErrNotChunk)
	})

	t.Run("canceled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeRotation(t, fs, t0)

		s, err := NewSelector(fs, diagDir)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = s.Select(ctx, t0, t1)
		require.ErrorIs(t, err, context.Canceled)
	})
}
