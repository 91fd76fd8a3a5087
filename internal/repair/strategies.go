package repair

import "strconv"

// DefaultStrategies returns the remediation ladder, cheapest first: copy the
// streams with timestamp normalization, plain remux, re-encode only the
// audio track and resync, force-trim to the expected duration, and finally a
// full re-encode of both tracks.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "basic_copy",
			Args: func(in, out string, _ float64) []string {
				return []string{
					"-f", "mp4",
					"-i", in,
					"-c", "copy",
					"-avoid_negative_ts", "make_zero",
					"-fflags", "+genpts",
					"-movflags", "+faststart",
					"-y", out,
				}
			},
		},
		{
			Name: "simple_remux",
			Args: func(in, out string, _ float64) []string {
				return []string{
					"-i", in,
					"-c", "copy",
					"-movflags", "+faststart",
					"-y", out,
				}
			},
		},
		{
			Name: "audio_resync",
			Args: func(in, out string, _ float64) []string {
				return []string{
					"-i", in,
					"-c:v", "copy",
					"-c:a", "aac",
					"-b:a", "128k",
					"-af", "aresample=async=1",
					"-avoid_negative_ts", "make_zero",
					"-y", out,
				}
			},
		},
		{
			Name: "force_duration",
			Args: func(in, out string, duration float64) []string {
				return []string{
					"-i", in,
					"-c", "copy",
					"-t", strconv.FormatFloat(duration, 'f', 3, 64),
					"-avoid_negative_ts", "make_zero",
					"-y", out,
				}
			},
		},
		{
			Name: "full_transcode",
			Args: func(in, out string, _ float64) []string {
				return []string{
					"-i", in,
					"-c:v", "libx264",
					"-c:a", "aac",
					"-b:a", "128k",
					"-avoid_negative_ts", "make_zero",
					"-y", out,
				}
			},
		},
	}
}
