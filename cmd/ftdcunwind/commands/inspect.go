package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/ftdcfile"
)

type inspectCommand struct {
	g *Globals

	verify bool
}

func newInspectCommand(g *Globals) *cobra.Command {
	ic := &inspectCommand{g: g}

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Summarize the chunks of capture files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  ic.run,
	}

	cmd.Flags().BoolVar(&ic.verify, "verify", false, "Decode every metrics chunk and check its sample count")

	return cmd
}

func (ic *inspectCommand) run(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tID\tTYPE\tSAMPLES\tLEAVES\tCOMPRESSION\tRAW\tSTORED")

	for _, path := range args {
		if err := ic.inspectFile(tw, path); err != nil {
			_ = tw.Flush()
			return err
		}
	}

	return tw.Flush()
}

func (ic *inspectCommand) inspectFile(w io.Writer, path string) error {
	docs, err := ftdcfile.ReadFile(ic.g.fs, path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	for i, doc := range docs {
		c, err := chunk.Classify(doc)
		if err != nil {
			return fmt.Errorf("%s: chunk %d: %w", name, i, err)
		}

		id := c.ID.Format(time.RFC3339Nano)
		if c.IsMetadata() {
			fmt.Fprintf(w, "%s\t%s\t%s\t1\t-\t-\t-\t-\n", name, id, c.Type)
			continue
		}

		h, err := chunk.ParseHeader(c.Data)
		if err != nil {
			return fmt.Errorf("%s: chunk %d: %w", name, i, err)
		}

		if ic.verify {
			samples, err := chunk.DecodeMetrics(c.Data)
			if err != nil {
				return fmt.Errorf("%s: chunk %d: %w", name, i, err)
			}
			if len(samples) != int(h.SampleCount) {
				return fmt.Errorf("%s: chunk %d: decoded %d samples, header says %d", name, i, len(samples), h.SampleCount)
			}
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%d\t%d\n",
			name, id, c.Type, h.SampleCount, h.LeafCount, h.Compression, h.RawSize, len(c.Data))
	}

	return nil
}
