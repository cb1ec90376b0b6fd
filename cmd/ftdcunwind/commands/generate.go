package commands

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/format"
	"github.com/arloliu/ftdcunwind/ftdcfile"
	"github.com/arloliu/ftdcunwind/record"
)

// ErrInvalidCount is returned for a non-positive sample count or interval.
var ErrInvalidCount = errors.New("count and interval must be positive")

type generateCommand struct {
	g *Globals

	dir         string
	start       string
	count       int
	interval    time.Duration
	compression string
	samples     int
	maxFileSize int64
	host        string
}

func newGenerateCommand(g *Globals) *cobra.Command {
	gc := &generateCommand{g: g}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic capture to a directory",
		Long: `Write a synthetic capture: one metadata chunk followed by metrics chunks
holding --count samples taken every --interval from --start.`,
		Args: cobra.NoArgs,
		RunE: gc.run,
	}

	cmd.Flags().StringVarP(&gc.dir, "dir", "d", "", "Capture directory to write to")
	cmd.Flags().StringVar(&gc.start, "start", "", "Timestamp of the first sample, RFC3339 (default: now)")
	cmd.Flags().IntVarP(&gc.count, "count", "n", 3600, "Number of samples")
	cmd.Flags().DurationVar(&gc.interval, "interval", time.Second, "Time between samples")
	cmd.Flags().StringVar(&gc.compression, "compression", "zstd", "Chunk compression: none, zstd, s2, lz4")
	cmd.Flags().IntVar(&gc.samples, "samples-per-chunk", chunk.DefaultMaxSamples, "Samples per metrics chunk")
	cmd.Flags().Int64Var(&gc.maxFileSize, "max-file-size", ftdcfile.DefaultMaxFileSize, "Rotate files after this many bytes")
	cmd.Flags().StringVar(&gc.host, "host", "localhost:27017", "Host name recorded in the metadata chunk")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func (gc *generateCommand) run(cmd *cobra.Command, _ []string) error {
	if gc.count <= 0 || gc.interval <= 0 {
		return ErrInvalidCount
	}

	comp, err := format.ParseCompression(gc.compression)
	if err != nil {
		return err
	}

	start := time.Now().UTC().Truncate(time.Second)
	if gc.start != "" {
		if start, err = time.Parse(time.RFC3339Nano, gc.start); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}

	samples := make([]record.Document, gc.count)
	for i := range samples {
		samples[i] = syntheticSample(start.Add(time.Duration(i)*gc.interval), i)
	}

	chunks, err := chunk.EncodeSamples(samples, chunk.WithCompression(comp), chunk.WithMaxSamples(gc.samples))
	if err != nil {
		return err
	}

	logger := gc.g.logger(cmd.ErrOrStderr())
	w, err := ftdcfile.NewWriter(gc.g.fs, gc.dir,
		ftdcfile.WithMaxFileSize(gc.maxFileSize),
		ftdcfile.WithWriterLogger(logger),
	)
	if err != nil {
		return err
	}

	meta := chunk.NewMetadata(start, record.NewDocument(
		record.F("host", record.String(gc.host)),
		record.F("generator", record.String("ftdcunwind "+Version)),
	))
	if err := w.Write(meta); err != nil {
		_ = w.Close()
		return err
	}
	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			_ = w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	level.Info(logger).Log("msg", "capture written", "dir", gc.dir, "samples", gc.count,
		"chunks", len(chunks), "files", len(w.Files()), "compression", comp)

	return nil
}

// syntheticSample resembles a server status document: counters grow
// monotonically and gauges oscillate.
func syntheticSample(ts time.Time, i int) record.Document {
	wave := math.Sin(float64(i) / 30)

	return record.NewDocument(
		record.F(chunk.TimestampField, record.Time(ts)),
		record.F("uptime", record.Int64(int64(i))),
		record.F("connections", record.Doc(record.NewDocument(
			record.F("current", record.Int64(int64(120+40*wave))),
			record.F("available", record.Int64(int64(51200-120-40*wave))),
			record.F("totalCreated", record.Int64(int64(1000+i/7))),
		))),
		record.F("opcounters", record.Doc(record.NewDocument(
			record.F("insert", record.Int64(int64(i*12))),
			record.F("query", record.Int64(int64(i*95+i%13))),
			record.F("update", record.Int64(int64(i*31))),
			record.F("delete", record.Int64(int64(i/3))),
		))),
		record.F("mem", record.Doc(record.NewDocument(
			record.F("resident", record.Float64(2048+16*wave)),
			record.F("virtual", record.Float64(4096)),
		))),
		record.F("repl", record.Doc(record.NewDocument(
			record.F("isWritablePrimary", record.Bool(true)),
			record.F("setName", record.String("rs0")),
		))),
	)
}
