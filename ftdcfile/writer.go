package ftdcfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/errs"
	"github.com/arloliu/ftdcunwind/internal/options"
	"github.com/arloliu/ftdcunwind/internal/pool"
)

// DefaultMaxFileSize is the rotation threshold unless configured otherwise.
const DefaultMaxFileSize = 10 << 20

// WriterConfig holds the Writer settings.
type WriterConfig struct {
	maxFileSize int64
	logger      log.Logger
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithMaxFileSize sets the size after which the writer starts a new file.
func WithMaxFileSize(n int64) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if n <= 0 {
			return fmt.Errorf("max file size must be positive, got %d", n)
		}
		c.maxFileSize = n

		return nil
	})
}

// WithWriterLogger sets the logger used for rotation events.
func WithWriterLogger(logger log.Logger) WriterOption {
	return options.NoError(func(c *WriterConfig) {
		c.logger = logger
	})
}

// Writer appends chunks to rotating files in a directory.
//
// Note: The Writer is NOT thread-safe.
type Writer struct {
	*WriterConfig

	fs      afero.Fs
	dir     string
	cur     afero.File
	curName string
	size    int64
	files   []string
	closed  bool
}

// NewWriter creates dir if needed and returns a Writer appending to it.
func NewWriter(fs afero.Fs, dir string, opts ...WriterOption) (*Writer, error) {
	cfg := &WriterConfig{
		maxFileSize: DefaultMaxFileSize,
		logger:      log.NewNopLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	return &Writer{WriterConfig: cfg, fs: fs, dir: dir}, nil
}

// Write appends c to the current file, starting a new file named after c.ID
// when none is open. The file is closed once it reaches the size threshold.
func (w *Writer) Write(c chunk.Chunk) error {
	if w.closed {
		return errs.ErrWriterClosed
	}

	if w.cur == nil {
		if err := w.open(c); err != nil {
			return err
		}
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)
	buf.B = AppendFrame(buf.B, c.Document())

	n, err := w.cur.Write(buf.Bytes())
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", w.curName, err)
	}

	if w.size >= w.maxFileSize {
		return w.rotate()
	}

	return nil
}

// Files returns the names of the files created so far, in creation order.
func (w *Writer) Files() []string {
	return append([]string(nil), w.files...)
}

// Close closes the current file. Further writes fail with
// errs.ErrWriterClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	return w.rotate()
}

func (w *Writer) open(c chunk.Chunk) error {
	for seq := 0; seq <= maxSeq; seq++ {
		name := FileName(c.ID, seq)
		path := filepath.Join(w.dir, name)

		exists, err := afero.Exists(w.fs, path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if exists {
			continue
		}

		f, err := w.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}

		w.cur, w.curName, w.size = f, name, 0
		w.files = append(w.files, name)
		level.Debug(w.logger).Log("msg", "started chunk file", "file", name)

		return nil
	}

	return fmt.Errorf("no free file name for %s", FileName(c.ID, 0))
}

func (w *Writer) rotate() error {
	if w.cur == nil {
		return nil
	}

	err := w.cur.Close()
	level.Debug(w.logger).Log("msg", "closed chunk file", "file", w.curName, "bytes", w.size)
	w.cur, w.curName, w.size = nil, "", 0
	if err != nil {
		return fmt.Errorf("failed to close chunk file: %w", err)
	}

	return nil
}
