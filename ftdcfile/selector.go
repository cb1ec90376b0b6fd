package ftdcfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/internal/options"
	"github.com/arloliu/ftdcunwind/record"
)

// SelectorConfig holds the Selector settings.
type SelectorConfig struct {
	logger  log.Logger
	metrics *SelectorMetrics
}

// SelectorOption configures a Selector.
type SelectorOption = options.Option[*SelectorConfig]

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) SelectorOption {
	return options.NoError(func(c *SelectorConfig) {
		c.logger = logger
	})
}

// WithMetrics sets the counters the selector reports to.
func WithMetrics(m *SelectorMetrics) SelectorOption {
	return options.NoError(func(c *SelectorConfig) {
		c.metrics = m
	})
}

// Selector finds the chunks of a diagnostic directory that cover a time
// window.
type Selector struct {
	*SelectorConfig

	fs  afero.Fs
	dir string
}

// NewSelector returns a Selector over dir.
func NewSelector(fs afero.Fs, dir string, opts ...SelectorOption) (*Selector, error) {
	cfg := &SelectorConfig{logger: log.NewNopLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.metrics == nil {
		cfg.metrics = NewSelectorMetrics(nil)
	}

	return &Selector{SelectorConfig: cfg, fs: fs, dir: dir}, nil
}

// Dir returns the directory the selector reads.
func (s *Selector) Dir() string {
	return s.dir
}

// SelectFiles returns the files that may hold chunks of [start, end): the
// latest files stamped at or before start, plus every file stamped inside
// the window. When start falls within the second those latest files are
// stamped with, the file before them is selected too, since names only keep
// whole seconds. Files stamped at or after end are never selected since a
// file only holds chunks from its own timestamp onward.
func (s *Selector) SelectFiles(start, end time.Time) ([]FileInfo, error) {
	files, foreign, err := ListFiles(s.fs, s.dir)
	if err != nil {
		return nil, errs.Wrap(errs.CodeIO, err, "list "+s.dir)
	}

	for _, name := range foreign {
		level.Debug(s.logger).Log("msg", "skipping foreign file", "dir", s.dir, "file", name)
	}
	s.metrics.filesSkipped.Add(float64(len(foreign)))

	lower := -1
	for i, f := range files {
		if f.Time.After(start) {
			break
		}
		lower = i
	}

	var selected []FileInfo
	if lower >= 0 {
		// files started within the same second share the boundary
		first := lower
		for first > 0 && files[first-1].Time.Equal(files[lower].Time) {
			first--
		}
		// names drop sub-second precision, so when start falls in the
		// boundary's second the group's first chunk may still come after
		// start and the covering chunk sits at the end of the previous file
		if first > 0 && files[lower].Time.Equal(start.Truncate(time.Second)) {
			first--
		}
		selected = append(selected, files[first:lower+1]...)
	}

	for _, f := range files[lower+1:] {
		if !f.Time.Before(end) {
			break
		}
		selected = append(selected, f)
	}

	s.metrics.filesSelected.Add(float64(len(selected)))

	return selected, nil
}

// Select reads the selected files and returns the chunk documents to unwind
// for [start, end), in file order.
//
// Metrics chunks stamped inside the window are kept, together with the last
// metrics chunk stamped before start since its samples may reach into the
// window. Metadata chunks are kept when stamped inside the window. Each file
// is closed before Select returns.
//
// Listing and read failures are reported with errs.CodeIO, damaged or
// unclassifiable content with errs.CodeDecode.
func (s *Selector) Select(ctx context.Context, start, end time.Time) ([]record.Document, error) {
	files, err := s.SelectFiles(start, end)
	if err != nil {
		return nil, err
	}

	var (
		straddle *record.Document
		chunks   []record.Document
	)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		level.Debug(s.logger).Log("msg", "reading chunk file", "file", f.Name)

		done, err := s.scan(f, end, func(doc record.Document, c chunk.Chunk) {
			switch {
			case !c.ID.Before(start):
				chunks = append(chunks, doc)
				s.metrics.chunksPreloaded.WithLabelValues(c.Type.String()).Inc()
			case c.Type == format.ChunkMetrics:
				straddle = &doc
			}
		})
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	if straddle != nil {
		chunks = append([]record.Document{*straddle}, chunks...)
		s.metrics.chunksPreloaded.WithLabelValues(format.ChunkMetrics.String()).Inc()
	}

	level.Debug(s.logger).Log("msg", "preloaded chunks", "files", len(files), "chunks", len(chunks),
		"start", start.Format(time.RFC3339Nano), "end", end.Format(time.RFC3339Nano))

	return chunks, nil
}

// scan streams one file's chunks into keep until a chunk stamped at or
// after end shows up, which reports done.
func (s *Selector) scan(f FileInfo, end time.Time, keep func(record.Document, chunk.Chunk)) (bool, error) {
	path := filepath.Join(s.dir, f.Name)

	file, err := s.fs.Open(path)
	if err != nil {
		return false, errs.Wrap(errs.CodeIO, err, "open "+path)
	}
	defer file.Close()

	r := NewReader(file)
	for {
		offset := r.Offset()
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			if isCorruption(err) {
				return false, errs.Wrap(errs.CodeDecode, err, "read "+path)
			}

			return false, errs.Wrap(errs.CodeIO, err, "read "+path)
		}

		c, err := chunk.Classify(doc)
		if err != nil {
			return false, errs.Wrap(errs.CodeDecode, err, fmt.Sprintf("%s at offset %d", path, offset))
		}

		if !c.ID.Before(end) {
			return true, nil
		}
		keep(doc, c)
	}
}
