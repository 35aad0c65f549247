package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/logging"
	"github.com/mrz1836/ally/internal/metrics"
	"github.com/mrz1836/ally/internal/report"
	"github.com/mrz1836/ally/internal/tui"
)

// maxScore is the best possible accessibility score.
const maxScore = 100

// ScanFlags holds flags specific to the scan command.
// Zero values leave the configured setting in place.
type ScanFlags struct {
	URLs        []string
	Standard    string
	Timeout     time.Duration
	NoCache     bool
	Browser     string
	BatchSize   int
	Engine      string
	Wait        string
	Screenshots string
	Report      string
	FailUnder   int
}

// overrides returns the flag values as a config overlay.
func (f *ScanFlags) overrides() *config.Config {
	return &config.Config{
		Scan: config.ScanConfig{
			Standard:      f.Standard,
			BatchSize:     f.BatchSize,
			Timeout:       f.Timeout,
			WaitUntil:     f.Wait,
			ScreenshotDir: f.Screenshots,
			ReportPath:    f.Report,
		},
		Browser: config.BrowserConfig{Backend: f.Browser},
		Engine:  config.EngineConfig{Kind: f.Engine},
	}
}

// AddScanCommand adds the scan command to the root command.
func AddScanCommand(root *cobra.Command) {
	flags := &ScanFlags{}
	root.AddCommand(newScanCmd(flags))
}

func newScanCmd(flags *ScanFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan HTML files and URLs for WCAG violations",
		Long: `Scan local HTML files, directories, and URLs for WCAG violations.

Directories are searched for .html and .htm files (node_modules and .git are
skipped). Pass "-" to scan markup read from standard input. With no arguments
the current directory is scanned.

The report is written to .ally/scan.json and summarized in the history log.
Violations do not fail the command unless --fail-under is set.

Examples:
  ally scan                              # Scan the current directory
  ally scan site/ --standard AAA         # Scan a directory at level AAA
  ally scan --url https://example.com    # Scan a live page
  cat page.html | ally scan -            # Scan markup from stdin
  ally scan dist/ --fail-under 90        # Fail CI when the score drops below 90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd, cmd.OutOrStdout(), flags, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&flags.URLs, "url", nil, "URL to scan (repeatable)")
	f.StringVar(&flags.Standard, "standard", "", "WCAG level: A, AA, or AAA (default AA)")
	f.DurationVar(&flags.Timeout, "timeout", 0, "per-page load timeout (default 30s)")
	f.BoolVar(&flags.NoCache, "no-cache", false, "skip cache lookups and writes")
	f.StringVar(&flags.Browser, "browser", "", "browser backend: chromedp or rod")
	f.IntVar(&flags.BatchSize, "batch-size", 0, "number of targets scanned concurrently (default 4)")
	f.StringVar(&flags.Engine, "engine", "", "rule engine: axe or builtin")
	f.StringVar(&flags.Wait, "wait", "", "page readiness: load, domcontentloaded, or networkidle")
	f.StringVar(&flags.Screenshots, "screenshots", "", "directory for screenshots of pages with violations")
	f.StringVar(&flags.Report, "report", "", "report output path (default .ally/scan.json)")
	f.IntVar(&flags.FailUnder, "fail-under", 0, "exit 1 when the score is below this value (0 disables)")

	return cmd
}

// loadScanConfig resolves configuration for a scan, applying flag overrides.
func loadScanConfig(ctx context.Context, cmd *cobra.Command, flags *ScanFlags) (*config.Config, error) {
	if flags.FailUnder < 0 || flags.FailUnder > maxScore {
		return nil, errors.NewExitCode2Error(fmt.Errorf("%w: --fail-under must be between 0 and %d, got %d",
			errors.ErrInvalidArgument, maxScore, flags.FailUnder))
	}
	if cmd.Flags().Changed("batch-size") && flags.BatchSize < 1 {
		return nil, errors.NewExitCode2Error(fmt.Errorf("%w: --batch-size must be at least 1, got %d",
			errors.ErrInvalidArgument, flags.BatchSize))
	}

	cfg, err := config.LoadWithOverrides(ctx, flags.overrides())
	if err != nil {
		return nil, err
	}

	// Booleans cannot be told apart from their zero value in an overlay.
	if cmd.Flags().Changed("no-cache") && flags.NoCache {
		cfg.Cache.Enabled = false
	}

	return cfg, nil
}

// runScan executes the scan command.
func runScan(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *ScanFlags, args []string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	logger := GetLogger()
	output := cmd.Flag("output").Value.String()
	quiet := cmd.Flag("quiet").Value.String() == "true"

	tui.CheckNoColor()
	out := tui.NewOutput(w, output)

	cfg, err := loadScanConfig(ctx, cmd, flags)
	if err != nil {
		return err
	}

	targets, err := collectTargets(args, flags.URLs, cmd.InOrStdin())
	if err != nil {
		return err
	}

	rec := metrics.New()
	scanner, std, err := newScanner(cfg, rec, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Int("targets", len(targets)).
		Str("standard", std.String()).
		Str("backend", cfg.Browser.Backend).
		Str("engine", cfg.Engine.Kind).
		Int("batch_size", cfg.Scan.BatchSize).
		Bool("cache", cfg.Cache.Enabled).
		Msg("starting scan")

	var progress *tui.ScanProgress
	if output == OutputText && !quiet {
		progress = tui.NewScanProgress(cmd.ErrOrStderr())
	}

	run := scanner.Start(ctx, targets)
	for ev := range run.Progress() {
		if progress != nil {
			progress.Update(ev.Completed, ev.Total, logging.SafeURL(ev.Label), ev.CacheHit, ev.Err)
		}
	}
	if progress != nil {
		progress.Done()
	}

	outcome, err := run.Wait()
	if err != nil {
		return err
	}
	// An interrupted run is incomplete; do not record it.
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	rep := report.Build(outcome, std, clock.RealClock{})
	if err := report.WriteJSON(cfg.Scan.ReportPath, rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	recordRun(ctx, cfg, rep, rec)

	logger.Info().
		Str("run_id", rep.RunID).
		Int("score", rep.Summary.Score).
		Int("violations", rep.Summary.TotalViolations).
		Int("failed", len(rep.Failures)).
		Int("cache_hits", outcome.CacheHits).
		Msg("scan complete")

	if output == OutputJSON {
		if err := out.JSON(rep); err != nil {
			return err
		}
	} else {
		tui.RenderSummary(w, rep)
		out.Info(fmt.Sprintf("Report written to %s", cfg.Scan.ReportPath))
	}

	return checkFailUnder(rep.Summary.Score, flags.FailUnder)
}

// recordRun appends the run to the history log and exports metrics.
// Both are best effort; the report is already on disk.
func recordRun(ctx context.Context, cfg *config.Config, rep *domain.AllyReport, rec *metrics.Recorder) {
	logger := GetLogger()

	if err := report.AppendHistory(ctx, cfg.Scan.HistoryPath, domain.HistoryEntryFor(rep)); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Scan.HistoryPath).Msg("failed to append scan history")
	}

	rec.RunSummary(rep.Summary.Score, severityCounts(rep.Summary.BySeverity))
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}
}
