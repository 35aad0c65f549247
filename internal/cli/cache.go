package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ally/internal/cache"
	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/tui"
)

// confirmPrompt asks the user a yes/no question.
var confirmPrompt = tui.Confirm //nolint:gochecknoglobals // Required for test mocking

// CacheClearFlags holds flags specific to the cache clear command.
type CacheClearFlags struct {
	// Force skips the confirmation prompt.
	Force bool
}

// AddCacheCommand adds the cache command group to the root command.
func AddCacheCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the scan result cache",
	}

	flags := &CacheClearFlags{}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached scan results",
		Long: `Delete every cached scan result so the next scan re-checks all targets.

Examples:
  ally cache clear          # Ask before deleting
  ally cache clear --force  # Delete without asking (CI)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd.Context(), cmd, cmd.OutOrStdout(), flags)
		},
	}
	clearCmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "skip the confirmation prompt")

	cmd.AddCommand(clearCmd)
	root.AddCommand(cmd)
}

// runCacheClear executes the cache clear command.
func runCacheClear(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *CacheClearFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	logger := GetLogger()
	out := tui.NewOutput(w, cmd.Flag("output").Value.String())

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !flags.Force {
		ok, err := confirmPrompt(fmt.Sprintf("Delete cached scan results in %s?", cfg.Cache.Dir), false)
		switch {
		case stderrors.Is(err, errors.ErrInteractiveRequired):
			return errors.NewExitCode2Error(fmt.Errorf("%w: pass --force to clear the cache", err))
		case stderrors.Is(err, errors.ErrMenuCanceled):
			ok = false
		case err != nil:
			return err
		}
		if !ok {
			out.Info("Cache left unchanged")
			return nil
		}
	}

	c := cache.New(cache.NewFileStore(cfg.Cache.Dir), cache.Options{Logger: logger})
	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	logger.Info().Str("dir", cfg.Cache.Dir).Msg("cache cleared")
	out.Success(fmt.Sprintf("Cleared cache in %s", cfg.Cache.Dir))
	return nil
}
