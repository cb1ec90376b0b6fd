package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arloliu/ftdcunwind"
	"github.com/arloliu/ftdcunwind/ftdcfile"
	"github.com/arloliu/ftdcunwind/record"
	"github.com/arloliu/ftdcunwind/unwind"
)

var (
	// ErrNoInput is returned when neither a capture directory nor an input
	// file is given.
	ErrNoInput = errors.New("one of --dir or --input is required")
	// ErrConflictingInput is returned when both are given.
	ErrConflictingInput = errors.New("--dir and --input are mutually exclusive")
)

// unwindCommand holds the flags of the unwind command.
type unwindCommand struct {
	g *Globals

	dir        string
	input      string
	configPath string

	path            string
	start           string
	end             string
	excludeMetadata bool
	excludeMissing  bool
	maxWindow       time.Duration
	stats           bool
}

func newUnwindCommand(g *Globals) *cobra.Command {
	uc := &unwindCommand{g: g}

	cmd := &cobra.Command{
		Use:   "unwind",
		Short: "Unwind chunks into samples printed as JSON lines",
		Long: `Unwind chunks into one JSON line per sample.

With --dir, the chunk files of a capture directory are read over the window
[--start, --end). With --input, each record of a chunk file is unwound at
--path, or as a whole when no path is given.

Options can also come from a YAML file (--config) holding the stage option
document; flags given on the command line override its fields.`,
		Args: cobra.NoArgs,
		RunE: uc.run,
	}

	cmd.Flags().StringVarP(&uc.dir, "dir", "d", "", "Capture directory to read over a time window")
	cmd.Flags().StringVarP(&uc.input, "input", "i", "", "Chunk file whose records are unwound one by one")
	cmd.Flags().StringVarP(&uc.configPath, "config", "c", "", "YAML file holding the option document")
	cmd.Flags().StringVarP(&uc.path, "path", "p", "", "Field path of the chunk within each record (e.g. data.chunk)")
	cmd.Flags().StringVar(&uc.start, "start", "", "Window start, RFC3339")
	cmd.Flags().StringVar(&uc.end, "end", "", "Window end (exclusive), RFC3339")
	cmd.Flags().BoolVar(&uc.excludeMetadata, "exclude-metadata", false, "Drop metadata chunks")
	cmd.Flags().BoolVar(&uc.excludeMissing, "exclude-missing", false, "Drop records without a usable chunk at --path")
	cmd.Flags().DurationVar(&uc.maxWindow, "max-window", unwind.DefaultMaxWindow, "Longest accepted window")
	cmd.Flags().BoolVar(&uc.stats, "stats", false, "Log unwind counters when done")

	return cmd
}

func (uc *unwindCommand) run(cmd *cobra.Command, _ []string) error {
	switch {
	case uc.dir == "" && uc.input == "":
		return ErrNoInput
	case uc.dir != "" && uc.input != "":
		return ErrConflictingInput
	}

	option, err := uc.optionDocument(cmd)
	if err != nil {
		return err
	}

	logger := uc.g.logger(cmd.ErrOrStderr())
	reg := prometheus.NewRegistry()
	opts := []unwind.Option{
		unwind.WithLogger(logger),
		unwind.WithMetrics(unwind.NewMetrics(reg)),
		unwind.WithMaxWindow(uc.maxWindow),
	}

	var src unwind.RecordSource
	if uc.dir != "" {
		src, err = uc.openWindow(cmd, option, logger, reg, opts)
	} else {
		src, err = uc.openStream(option, opts)
	}
	if err != nil {
		return err
	}

	n, err := writeJSONLines(cmd, src)
	level.Debug(logger).Log("msg", "unwind finished", "records", n)
	if uc.stats {
		logStats(logger, reg)
	}

	return err
}

// optionDocument merges the option file with the flags set on the command
// line.
func (uc *unwindCommand) optionDocument(cmd *cobra.Command) (record.Value, error) {
	doc := record.NewDocument()
	if uc.configPath != "" {
		v, err := loadOptionFile(uc.g.fs, uc.configPath)
		if err != nil {
			return record.Value{}, err
		}
		d, ok := v.Document()
		if !ok {
			// let the stage parser report the shape error
			return v, nil
		}
		doc = d
	}

	flags := cmd.Flags()
	if flags.Changed("path") {
		p := uc.path
		if !strings.HasPrefix(p, "$") {
			p = "$" + p
		}
		doc = doc.Set(unwind.OptionPath, record.String(p))
	}
	for _, bound := range []struct {
		flag, name, value string
	}{
		{"start", unwind.OptionStart, uc.start},
		{"end", unwind.OptionEnd, uc.end},
	} {
		if !flags.Changed(bound.flag) {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, bound.value)
		if err != nil {
			return record.Value{}, fmt.Errorf("invalid --%s: %w", bound.flag, err)
		}
		doc = doc.Set(bound.name, record.Time(t))
	}
	if flags.Changed("exclude-metadata") {
		doc = doc.Set(unwind.OptionExcludeMetadata, record.Bool(uc.excludeMetadata))
	}
	if flags.Changed("exclude-missing") {
		doc = doc.Set(unwind.OptionExcludeMissing, record.Bool(uc.excludeMissing))
	}

	return record.Doc(doc), nil
}

func (uc *unwindCommand) openWindow(cmd *cobra.Command, option record.Value, logger log.Logger,
	reg prometheus.Registerer, opts []unwind.Option,
) (unwind.RecordSource, error) {
	spec, err := unwind.ParseWindowSpec(option, uc.maxWindow)
	if err != nil {
		return nil, err
	}

	sel, err := ftdcfile.NewSelector(uc.g.fs, uc.dir,
		ftdcfile.WithLogger(logger),
		ftdcfile.WithMetrics(ftdcfile.NewSelectorMetrics(reg)),
	)
	if err != nil {
		return nil, err
	}

	return unwind.OpenWindow(cmd.Context(), sel, spec, opts...)
}

func (uc *unwindCommand) openStream(option record.Value, opts []unwind.Option) (unwind.RecordSource, error) {
	docs, err := ftdcfile.ReadFile(uc.g.fs, uc.input)
	if err != nil {
		return nil, err
	}

	return ftdcunwind.NewStreamSource(unwind.NewSliceUpstream(docs...), option, opts...)
}

func writeJSONLines(cmd *cobra.Command, src unwind.RecordSource) (int, error) {
	w := bufio.NewWriter(cmd.OutOrStdout())

	n := 0
	for doc, err := range unwind.All(cmd.Context(), src) {
		if err != nil {
			_ = w.Flush()
			return n, err
		}

		b, err := doc.MarshalJSON()
		if err != nil {
			_ = w.Flush()
			return n, err
		}
		_, _ = w.Write(b)
		_ = w.WriteByte('\n')
		n++
	}

	return n, w.Flush()
}

// logStats logs every counter gathered from reg.
func logStats(logger log.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		level.Warn(logger).Log("msg", "failed to gather counters", "err", err)
		return
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			kv := []any{"msg", "counter", "name", mf.GetName(), "value", m.GetCounter().GetValue()}
			for _, l := range m.GetLabel() {
				kv = append(kv, l.GetName(), l.GetValue())
			}
			level.Info(logger).Log(kv...)
		}
	}
}
