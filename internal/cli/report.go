package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/report"
	"github.com/mrz1836/ally/internal/tui"
)

// Report formats accepted by --format.
const (
	reportFormatMarkdown = "markdown"
	reportFormatJSON     = "json"
)

// ReportFlags holds flags specific to the report command.
type ReportFlags struct {
	// Path overrides the configured report path.
	Path string
	// Format is markdown or json.
	Format string
}

// AddReportCommand adds the report command to the root command.
func AddReportCommand(root *cobra.Command) {
	flags := &ReportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the last scan report",
		Long: `Render the most recent scan report.

Markdown is rendered for the terminal when stdout is a TTY and printed as
plain markdown otherwise, so it can be redirected into a file or a PR comment.

Examples:
  ally report                       # Render the last report
  ally report --format json         # Print the raw JSON report
  ally report > a11y.md             # Save markdown for a PR comment`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), cmd, cmd.OutOrStdout(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.Path, "path", "", "report file (default from scan.report_path)")
	cmd.Flags().StringVar(&flags.Format, "format", reportFormatMarkdown, "report format (markdown or json)")
	root.AddCommand(cmd)
}

// runReport executes the report command.
func runReport(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *ReportFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	format := flags.Format
	if cmd.Flag("output").Value.String() == OutputJSON {
		format = reportFormatJSON
	}
	if format != reportFormatMarkdown && format != reportFormatJSON {
		return errors.NewExitCode2Error(fmt.Errorf("%w: --format must be markdown or json, got %q",
			errors.ErrInvalidArgument, flags.Format))
	}

	path := flags.Path
	if path == "" {
		cfg, err := config.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		path = cfg.Scan.ReportPath
	}

	rep, err := report.ReadJSON(path)
	if err != nil {
		return err
	}

	if format == reportFormatJSON {
		return tui.NewJSONOutput(w).JSON(rep)
	}

	md := report.RenderMarkdown(rep)
	if isTerminal(w) {
		md = tui.RenderMarkdown(md)
	}
	_, err = fmt.Fprint(w, md)
	return err
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
