package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vrecon/internal/config"
	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/merge"
	"vrecon/internal/pipeline"
	"vrecon/internal/repair"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stdout",
				filepath.Join(cfg.Paths.LogDir, "vrecon.log"),
			},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newService() (*pipeline.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return pipeline.NewService(cfg, logger)
}

func (c *commandContext) newMerger() (*merge.Merger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	ffmpegCLI := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.Tools.FFmpegBinary))
	cascade := repair.New(ffmpegCLI, logger,
		repair.WithAttemptTimeout(cfg.Merge.RepairTimeout()))
	return merge.New(merge.Options{
		Concat:        ffmpegCLI,
		Repair:        cascade,
		AppendRetries: cfg.Merge.AppendRetries,
		AppendBackoff: cfg.Merge.AppendBackoff(),
		Logger:        logger,
	}), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
