package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vrecon/internal/config"
	"vrecon/internal/media/ffmpeg"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <asset>",
		Short: "Inspect an asset and show the transcode parameters it would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service, err := ctx.newService()
			if err != nil {
				return err
			}

			assetPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := service.Probe(cmd.Context(), assetPath)
			if err != nil {
				return err
			}

			profile := ffmpeg.NewProfile(cfg.Split.Encoder, cfg.Split.Quality, info.Width, cfg.Split.SkipEncode)
			rows := [][]string{
				{"Duration", fmt.Sprintf("%.3fs", info.Duration)},
				{"Resolution", fmt.Sprintf("%dx%d (%s)", info.Width, info.Height, ffmpeg.ResolutionClass(info.Width))},
				{"Codec", info.Codec},
				{"Encoder", profile.Encoder},
				{"CRF", strconv.Itoa(profile.CRF)},
				{"Preset", profile.Preset()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
