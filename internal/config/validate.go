package config

import (
	"errors"
	"fmt"
)

var supportedQualities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validatePool(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSplit() error {
	if c.Split.SegmentSeconds <= 0 {
		return errors.New("split.segment_seconds must be positive")
	}
	if _, ok := supportedQualities[c.Split.Quality]; !ok {
		return fmt.Errorf("split.quality must be one of low, medium, high (got %q)", c.Split.Quality)
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.Pool.MinWorkers < 1 {
		return errors.New("pool.min_workers must be at least 1")
	}
	if c.Pool.MaxWorkers < c.Pool.MinWorkers {
		return fmt.Errorf("pool.max_workers (%d) must be >= pool.min_workers (%d)", c.Pool.MaxWorkers, c.Pool.MinWorkers)
	}
	if c.Pool.InitialWorkers < c.Pool.MinWorkers || c.Pool.InitialWorkers > c.Pool.MaxWorkers {
		return fmt.Errorf("pool.initial_workers (%d) must be within [%d, %d]", c.Pool.InitialWorkers, c.Pool.MinWorkers, c.Pool.MaxWorkers)
	}
	if c.Pool.TargetCPUPercent <= 0 || c.Pool.TargetCPUPercent > 100 {
		return errors.New("pool.target_cpu_percent must be in (0, 100]")
	}
	if c.Pool.SampleSeconds < 1 {
		return errors.New("pool.sample_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Merge.AppendRetries < 1 {
		return errors.New("merge.append_retries must be at least 1")
	}
	if c.Merge.AppendBackoffMillis < 0 {
		return errors.New("merge.append_backoff_millis must not be negative")
	}
	if c.Merge.RepairAttemptSeconds < 1 {
		return errors.New("merge.repair_attempt_seconds must be at least 1")
	}
	return nil
}
