package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"vrecon/internal/config"
	"vrecon/internal/merge"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge <folder>",
		Short: "Merge a folder of stream fragments into one container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merger, err := ctx.newMerger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			var result *merge.Result
			if dryRun {
				result, err = merger.DryRun(signalCtx, dir)
			} else {
				result, err = merger.Merge(signalCtx, dir, outputPath)
			}
			if result != nil {
				printMergeResult(cmd, result, dryRun)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate fragments without writing anything")
	return cmd
}

func printMergeResult(cmd *cobra.Command, result *merge.Result, dryRun bool) {
	rows := [][]string{
		{"State", string(result.State)},
		{"Groups", strconv.Itoa(result.Groups)},
		{"Fragments", strconv.Itoa(result.Fragments)},
		{"Skipped", strconv.Itoa(result.Skipped)},
		{"Elapsed", result.Elapsed.Round(timeRounding).String()},
	}
	for _, id := range sortedKeys(result.Repairs) {
		rows = append(rows, []string{"Repair P" + id, result.Repairs[id]})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	if !dryRun && result.State == merge.StateMerged {
		fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", result.OutputPath)
	}
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
