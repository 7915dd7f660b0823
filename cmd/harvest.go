package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/profile-harvest/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch directory pages and store them on disk",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStep(cmd, (*pipeline.Pipeline).Scrape)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract researcher records from every stored page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStep(cmd, (*pipeline.Pipeline).Process)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape then process",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStep(cmd, (*pipeline.Pipeline).Run)
	},
}

// runStep builds the pipeline and runs one step under a context that is
// cancelled on SIGINT/SIGTERM.
func runStep(cmd *cobra.Command, step func(*pipeline.Pipeline, context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, cleanup, err := initPipeline(ctx)
	defer cleanup()
	if err != nil {
		return err
	}
	return step(p, ctx)
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(runCmd)
}
