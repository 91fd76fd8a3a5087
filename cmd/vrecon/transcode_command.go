package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"vrecon/internal/config"
	"vrecon/internal/pipeline"
)

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "transcode <asset>",
		Short: "Split an asset into segments, transcode them concurrently, and reassemble",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.newService()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			assetPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			outcome, err := service.Process(signalCtx, assetPath, outputPath)
			if outcome != nil {
				printOutcome(cmd, outcome)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", outcome.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	return cmd
}

func printOutcome(cmd *cobra.Command, outcome *pipeline.Outcome) {
	rows := [][]string{
		{"Segments", strconv.Itoa(len(outcome.Plan.Segments))},
		{"Completed", strconv.Itoa(len(outcome.Run.Completed) + len(outcome.Run.Resumed))},
		{"Resumed", strconv.Itoa(len(outcome.Run.Resumed))},
		{"Failed", strconv.Itoa(len(outcome.Run.Failed))},
		{"Transcode calls", strconv.Itoa(outcome.Run.TranscodeCalls)},
		{"Elapsed", outcome.Run.Elapsed.Round(timeRounding).String()},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
