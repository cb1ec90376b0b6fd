// Package commands implements CLI command handlers for ftdcunwind.
package commands

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

// Globals holds the settings shared by every command.
type Globals struct {
	LogLevel  string
	LogFormat string

	fs afero.Fs
}

// NewGlobals returns the defaults used by the binary: info level logfmt
// logging and the OS filesystem.
func NewGlobals() *Globals {
	return &Globals{LogLevel: "info", LogFormat: "logfmt", fs: afero.NewOsFs()}
}

// NewRootCommand builds the command tree.
func NewRootCommand(g *Globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ftdcunwind",
		Short: "Expand diagnostic capture chunks into individual samples",
		Long: `ftdcunwind reads diagnostic capture chunks and expands them into one record per sample.

Commands:
  unwind    Unwind chunk files over a time window, or chunks embedded in records
  generate  Write a synthetic capture
  inspect   Summarize the chunks of capture files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", g.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", g.LogFormat, "Log format: logfmt, json")

	rootCmd.AddCommand(newUnwindCommand(g))
	rootCmd.AddCommand(newGenerateCommand(g))
	rootCmd.AddCommand(newInspectCommand(g))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ftdcunwind %s\n", Version)
		},
	}
}

func (g *Globals) logger(w io.Writer) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	if g.LogFormat == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	}
	logger = level.NewFilter(logger, levelFilter(g.LogLevel))

	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func levelFilter(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "info":
		return level.AllowInfo()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowAll()
	}
}
