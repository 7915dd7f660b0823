package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/profile-harvest/internal/model"
	"github.com/sells-group/profile-harvest/internal/pagestore"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect extracted results",
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <page-index>",
	Short: "Print the stored result for a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 1 {
			return eris.Errorf("results show: invalid page index %q", args[0])
		}

		records, err := pagestore.NewResults(cfg.Storage.ProcessedDir).Load(index)
		if err != nil {
			return eris.Wrap(err, "results show")
		}

		b, err := pagestore.EncodeRecords(records)
		if err != nil {
			return eris.Wrap(err, "results show")
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pages and how many records each result holds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		pages := pagestore.NewPages(cfg.Storage.ScrapedDir)
		results := pagestore.NewResults(cfg.Storage.ProcessedDir)

		indices, err := pages.Indices()
		if err != nil {
			return eris.Wrap(err, "results list")
		}
		if len(indices) == 0 {
			cmd.PrintErrln("No stored pages.")
			return nil
		}
		formatResultsList(cmd.OutOrStdout(), indices, results)
		return nil
	},
}

func init() {
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsListCmd)
	rootCmd.AddCommand(resultsCmd)
}

// formatResultsList writes one row per stored page with its result status.
func formatResultsList(out io.Writer, indices []int, results *pagestore.Results) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PAGE\tRESULT\tRECORDS")
	_, _ = fmt.Fprintln(w, "----\t------\t-------")

	for _, i := range indices {
		records, err := results.Load(i)
		switch {
		case errors.Is(err, pagestore.ErrNotFound):
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i, "missing", "-")
		case err != nil:
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i, "unreadable", "-")
		default:
			_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", i, model.ResultFileName(i), len(records))
		}
	}
	_ = w.Flush()
}
