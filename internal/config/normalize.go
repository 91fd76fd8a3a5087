package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSplit()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = defaultFFmpegBinary
	}
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.FFprobeBinary == "" {
		c.Tools.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeSplit() {
	c.Split.Encoder = strings.TrimSpace(c.Split.Encoder)
	if c.Split.Encoder == "" {
		c.Split.Encoder = defaultEncoder
	}
	c.Split.Quality = strings.ToLower(strings.TrimSpace(c.Split.Quality))
	if c.Split.Quality == "" {
		c.Split.Quality = defaultQuality
	}
	if c.Split.SegmentSeconds == 0 {
		c.Split.SegmentSeconds = defaultSegmentSeconds
	}
}

func (c *Config) normalizeMerge() {
	if c.Merge.AppendRetries == 0 {
		c.Merge.AppendRetries = defaultAppendRetries
	}
	if c.Merge.AppendBackoffMillis == 0 {
		c.Merge.AppendBackoffMillis = defaultAppendBackoff
	}
	if c.Merge.RepairAttemptSeconds == 0 {
		c.Merge.RepairAttemptSeconds = defaultRepairSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
