// Package main provides the entry point for the ally CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/ally/internal/cli"
	"github.com/mrz1836/ally/internal/signal"
)

// Set via ldflags at build time.
var (
	version = "dev"     //nolint:gochecknoglobals // ldflags target
	commit  = "none"    //nolint:gochecknoglobals // ldflags target
	date    = "unknown" //nolint:gochecknoglobals // ldflags target
)

func main() {
	h := signal.NewHandler(context.Background(), func() {
		cli.CloseLogFile()
		os.Exit(cli.ExitInterrupted)
	})

	err := cli.Execute(h.Context(), cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	h.Stop()
	cli.CloseLogFile()
	os.Exit(cli.ExitCodeForError(err))
}
