package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/ally/internal/config"
	"github.com/mrz1836/ally/internal/ctxutil"
	"github.com/mrz1836/ally/internal/errors"
)

// ConfigShowFlags holds flags specific to the config show command.
type ConfigShowFlags struct {
	// Format specifies the output format (yaml or json).
	Format string
}

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ally configuration",
	}

	flags := &ConfigShowFlags{}
	cmd.AddCommand(newConfigShowCmd(flags))
	root.AddCommand(cmd)
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(flags *ConfigShowFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective ally configuration after merging all sources:
  - Built-in defaults
  - Global config (~/.ally/config.yaml, or $ALLY_HOME/config.yaml)
  - Project config (.ally/config.yaml)
  - ALLY_* environment variables (e.g. ALLY_SCAN_BATCH_SIZE)

Examples:
  ally config show                 # Display config as YAML
  ally config show --format json   # Display config as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.Format, "format", "yaml", "output format (yaml or json)")

	return cmd
}

// runConfigShow executes the config show command.
func runConfigShow(ctx context.Context, w io.Writer, flags *ConfigShowFlags) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	if flags.Format != "yaml" && flags.Format != "json" {
		return errors.NewExitCode2Error(fmt.Errorf("%w: --format must be yaml or json, got %q",
			errors.ErrInvalidArgument, flags.Format))
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.Format == "json" {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if _, err := fmt.Fprint(w, sourceHeader()); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// sourceHeader lists the config files that exist as YAML comments.
func sourceHeader() string {
	header := "# ally configuration\n"

	if global, err := config.GlobalConfigPath(); err == nil {
		header += fmt.Sprintf("# global:  %s%s\n", global, presence(global))
	}
	project := config.ProjectConfigPath()
	header += fmt.Sprintf("# project: %s%s\n", project, presence(project))

	return header
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not found)"
	}
	return ""
}
