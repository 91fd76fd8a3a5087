package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"vrecon/internal/batch"
	"vrecon/internal/config"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Process every item of a directory, recording a per-item report",
	}

	batchCmd.AddCommand(newBatchTranscodeCommand(ctx))
	batchCmd.AddCommand(newBatchMergeCommand(ctx))
	return batchCmd
}

func newBatchTranscodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcode <directory>",
		Short: "Transcode every video file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.newService()
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd, args[0],
				func(signalCtx context.Context, coordinator *batch.Coordinator, dir string) (*batch.Summary, error) {
					return coordinator.TranscodeDirectory(signalCtx, dir, service)
				})
		},
	}
}

func newBatchMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <directory>",
		Short: "Merge every fragment subfolder of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merger, err := ctx.newMerger()
			if err != nil {
				return err
			}
			return runBatch(ctx, cmd, args[0],
				func(signalCtx context.Context, coordinator *batch.Coordinator, dir string) (*batch.Summary, error) {
					return coordinator.MergeDirectory(signalCtx, dir, merger)
				})
		},
	}
}

func runBatch(ctx *commandContext, cmd *cobra.Command, rawDir string, run func(context.Context, *batch.Coordinator, string) (*batch.Summary, error)) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	dir, err := config.ExpandPath(rawDir)
	if err != nil {
		return err
	}

	store, err := batch.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, err := run(signalCtx, batch.NewCoordinator(store, logger), dir)
	if err != nil {
		return err
	}

	printBatchSummary(cmd, summary)
	if !summary.Success() {
		return fmt.Errorf("%d of %d items failed", summary.Run.Failed, len(summary.Items))
	}
	return nil
}

func printBatchSummary(cmd *cobra.Command, summary *batch.Summary) {
	rows := make([][]string, 0, len(summary.Items))
	for _, item := range summary.Items {
		rows = append(rows, []string{
			filepath.Base(item.SourcePath),
			string(item.Status),
			item.Elapsed.Round(timeRounding).String(),
			item.Error,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Item", "Status", "Elapsed", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Run %s: %s of %s items completed\n",
		summary.Run.ID,
		strconv.Itoa(summary.Run.Completed),
		strconv.Itoa(len(summary.Items)))
}
