package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// BuildInfo is set by LDFLAGS in main.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func Run(build BuildInfo) ExitCode {
	rootCmd := NewRootCmd(build)
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd(build BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "retention",
		Short:   "Influencer cohort retention reports from post exports.",
		Version: fmt.Sprintf("%s (commit: %s, date: %s)", build.Version, build.Commit, build.Date),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	rootCmd.AddCommand(
		NewReportCmd().Command(),
		NewPeriodsCmd().Command(),
	)
	return rootCmd
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	return newLogger(verbose), nil
}
