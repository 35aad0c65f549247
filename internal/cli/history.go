package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/report"
	"github.com/mrz1836/ally/internal/tui"
)

// HistoryFlags holds flags specific to the history command.
type HistoryFlags struct {
	// Limit is the number of most recent runs to show.
	Limit int
}

// AddHistoryCommand adds the history command to the root command.
func AddHistoryCommand(root *cobra.Command) {
	flags := &HistoryFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the score trend of recent scans",
		Long: `Display recent scan runs from the history log, oldest first, with the
score change from one run to the next.

Examples:
  ally history              # Show the last 10 runs
  ally history --limit 30   # Show the last 30 runs
  ally history -o json      # Print entries as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), cmd, cmd.OutOrStdout(), flags)
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", constants.HistoryDefaultLimit, "number of runs to show")
	root.AddCommand(cmd)
}

// runHistory executes the history command.
func runHistory(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *HistoryFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if flags.Limit < 1 {
		return errors.NewExitCode2Error(fmt.Errorf("%w: --limit must be at least 1, got %d",
			errors.ErrInvalidArgument, flags.Limit))
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	entries, err := report.ReadHistory(ctx, cfg.Scan.HistoryPath, flags.Limit)
	if err != nil {
		return err
	}

	out := tui.NewOutput(w, cmd.Flag("output").Value.String())
	if cmd.Flag("output").Value.String() == OutputJSON {
		return out.JSON(entries)
	}

	if len(entries) == 0 {
		out.Info("No scan history yet. Run 'ally scan' to record one.")
		return nil
	}

	headers, rows := tui.HistoryRows(entries)
	out.Table(headers, rows)
	return nil
}
