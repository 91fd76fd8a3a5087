package deps

import "vrecon/internal/config"

// Requirements lists the binaries a configuration expects to find. Both
// tools are mandatory: ffprobe feeds the planner and ffmpeg does every
// transcode, concat, and repair.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpegBinary,
			Description: "Segment transcoding, concatenation, and fragment repair",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobeBinary,
			Description: "Media inspection for segment planning",
		},
	}
}

// Missing filters statuses down to required dependencies that are not
// available.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
