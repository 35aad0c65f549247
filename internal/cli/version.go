package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ally/internal/tui"
)

// versionInfo is the JSON shape of the version command.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// AddVersionCommand adds the version command to the root command.
func AddVersionCommand(root *cobra.Command, info BuildInfo) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd.OutOrStdout(), cmd.Flag("output").Value.String(), info)
		},
	})
}

func runVersion(w io.Writer, output string, info BuildInfo) error {
	info = info.withDefaults()
	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(versionInfo{
			Version:   info.Version,
			Commit:    info.Commit,
			Date:      info.Date,
			GoVersion: runtime.Version(),
		})
	}
	_, err := fmt.Fprintf(w, "ally %s\n", formatVersion(info))
	return err
}
