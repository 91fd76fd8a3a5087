package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"vrecon/internal/batch"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recorded batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := batch.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return printRunItems(cmd, store, runID)
			}
			return printRecentRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-item detail for one run")
	return cmd
}

func printRecentRuns(cmd *cobra.Command, store *batch.Store, limit int) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No batch runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			string(run.Kind),
			run.Root,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(run.Completed),
			strconv.Itoa(run.Failed),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Run", "Kind", "Root", "Started", "Completed", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return nil
}

func printRunItems(cmd *cobra.Command, store *batch.Store, runID string) error {
	items, err := store.ItemsForRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No items recorded for run %s\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			filepath.Base(item.SourcePath),
			string(item.Status),
			item.Elapsed.Round(timeRounding).String(),
			item.Error,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Item", "Status", "Elapsed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
