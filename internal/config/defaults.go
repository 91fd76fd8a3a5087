package config

const (
	defaultStagingDir     = "~/.local/share/vrecon/staging"
	defaultOutputDir      = "~/videos/encoded"
	defaultLogDir         = "~/.local/share/vrecon/logs"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultSegmentSeconds = 300.0
	defaultEncoder        = "libx265"
	defaultQuality        = "medium"
	defaultMinWorkers     = 1
	defaultMaxWorkers     = 8
	defaultInitialWorkers = 2
	defaultTargetCPU      = 80.0
	defaultSampleSeconds  = 5
	defaultAppendRetries  = 3
	defaultAppendBackoff  = 200
	defaultRepairSeconds  = 300
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Tools: Tools{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Split: Split{
			SegmentSeconds: defaultSegmentSeconds,
			Encoder:        defaultEncoder,
			Quality:        defaultQuality,
		},
		Pool: Pool{
			MinWorkers:       defaultMinWorkers,
			MaxWorkers:       defaultMaxWorkers,
			InitialWorkers:   defaultInitialWorkers,
			TargetCPUPercent: defaultTargetCPU,
			SampleSeconds:    defaultSampleSeconds,
		},
		Merge: Merge{
			AppendRetries:        defaultAppendRetries,
			AppendBackoffMillis:  defaultAppendBackoff,
			RepairAttemptSeconds: defaultRepairSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
