// Package ftdcunwind expands compressed diagnostic chunks into the individual
// samples they hold.
//
// A diagnostic capture is a sequence of chunk documents. A metadata chunk
// carries one document describing the capturing host; a metrics chunk packs
// hundreds of samples into a reference document plus compressed per-field
// columns. Unwinding turns every chunk back into one record per sample, either
// for chunks embedded in a stream of records or for chunk files on disk.
//
// # Stream Usage
//
// Records flowing from an upstream carry chunks at a field path. Each record
// is replaced by one copy per sample, with the chunk swapped for the sample:
//
//	option := record.Doc(record.NewDocument(
//	    record.F("path", record.String("$data.chunk")),
//	    record.F("excludeMetadata", record.Bool(true)),
//	))
//	src, err := ftdcunwind.NewStreamSource(upstream, option)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for doc, err := range unwind.All(ctx, src) {
//	    ...
//	}
//
// # Window Usage
//
// Chunk files written by ftdcfile.Writer are read back over a time window of
// at most one hour by default:
//
//	option := record.Doc(record.NewDocument(
//	    record.F("start", record.Time(start)),
//	    record.F("end", record.Time(start.Add(10*time.Minute))),
//	))
//	src, err := ftdcunwind.OpenWindow(ctx, afero.NewOsFs(), "/var/lib/diag", option, 0)
//
// # Package Structure
//
// This package wraps the unwind, ftdcfile and chunk packages for the common
// cases. Use those packages directly for finer control over decoding,
// selection and metrics.
package ftdcunwind

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/afero"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/ftdcfile"
	"github.com/arloliu/ftdcunwind/record"
	"github.com/arloliu/ftdcunwind/unwind"
)

// NewStreamSource parses the stage option document and returns a source
// unwinding the records of upstream.
//
// Parameters:
//   - upstream: The parent record supplier
//   - option: {path: "$a.b", excludeMetadata: <bool>, excludeMissing: <bool>}
//   - opts: Logger, metrics and decoder options (see unwind.Option)
//
// Returns an errs.Error with a configuration code when the option document
// is invalid.
func NewStreamSource(upstream unwind.Upstream, option record.Value, opts ...unwind.Option) (*unwind.StreamSource, error) {
	spec, err := unwind.ParseStreamSpec(option)
	if err != nil {
		return nil, err
	}

	return unwind.NewStreamSource(upstream, spec, opts...)
}

// OpenWindow parses the window option document, preloads the chunks of the
// files in dir that cover the window and returns a source over them.
//
// Parameters:
//   - fs: The filesystem holding the chunk files
//   - dir: The directory chunk files are written to
//   - option: {start: <date>, end: <date>, excludeMetadata: <bool>}
//   - maxWindow: The longest accepted window, non-positive for unwind.DefaultMaxWindow
//   - opts: Logger, metrics and decoder options (see unwind.Option)
//
// The window is validated before any file is touched.
func OpenWindow(ctx context.Context, fs afero.Fs, dir string, option record.Value, maxWindow time.Duration,
	opts ...unwind.Option,
) (*unwind.WindowSource, error) {
	spec, err := unwind.ParseWindowSpec(option, maxWindow)
	if err != nil {
		return nil, err
	}
	if maxWindow > 0 {
		opts = append(opts, unwind.WithMaxWindow(maxWindow))
	}

	sel, err := ftdcfile.NewSelector(fs, dir)
	if err != nil {
		return nil, err
	}

	return unwind.OpenWindow(ctx, sel, spec, opts...)
}

// WriteSamples encodes samples into metrics chunks and appends them to chunk
// files in dir. An optional metadata document is written first, stamped with
// the first sample's timestamp. It returns the names of the files written.
//
// Every sample needs a date in its "start" field; consecutive samples with the
// same layout share a chunk.
func WriteSamples(fs afero.Fs, dir string, metadata *record.Document, samples []record.Document,
	compression format.CompressionType,
) ([]string, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples to write")
	}

	chunks, err := chunk.EncodeSamples(samples, chunk.WithCompression(compression))
	if err != nil {
		return nil, err
	}

	w, err := ftdcfile.NewWriter(fs, dir)
	if err != nil {
		return nil, err
	}

	if metadata != nil {
		if err := w.Write(chunk.NewMetadata(chunks[0].ID, *metadata)); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return w.Files(), nil
}
