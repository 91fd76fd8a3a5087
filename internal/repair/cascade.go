package repair

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"vrecon/internal/fileutil"
	"vrecon/internal/logging"
	"vrecon/internal/services"
)

// Executor runs an external command with a full argument list. Satisfied by
// the ffmpeg CLI client.
type Executor interface {
	Run(ctx context.Context, args []string) error
}

// Strategy is one remediation attempt against a merged container. Strategies
// are data: adding or reordering them never touches the runner.
type Strategy struct {
	Name string
	Args func(inputPath, outputPath string, expectedDuration float64) []string
}

// DefaultAttemptTimeout bounds each strategy invocation.
const DefaultAttemptTimeout = 5 * time.Minute

// Option configures the cascade.
type Option func(*Cascade)

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies []Strategy) Option {
	return func(c *Cascade) {
		if len(strategies) > 0 {
			c.strategies = strategies
		}
	}
}

// WithAttemptTimeout overrides the per-attempt timeout.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(c *Cascade) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// Cascade iterates strategies in order, stopping at the first success.
type Cascade struct {
	exec       Executor
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

// New constructs a cascade with the default strategy list.
func New(exec Executor, logger *slog.Logger, opts ...Option) *Cascade {
	cascade := &Cascade{
		exec:       exec,
		strategies: DefaultStrategies(),
		timeout:    DefaultAttemptTimeout,
		logger:     logging.NewComponentLogger(logger, "repair"),
	}
	for _, opt := range opts {
		opt(cascade)
	}
	return cascade
}

// Repair runs the cascade over inputPath, writing the repaired container to
// outputPath. It returns the name of the strategy that succeeded. Each failed
// attempt's partial output is removed before the next strategy runs; when
// every strategy fails the attempted names are reported.
func (c *Cascade) Repair(ctx context.Context, inputPath, outputPath string, expectedDuration float64) (string, error) {
	attempted := make([]string, 0, len(c.strategies))
	for _, strategy := range c.strategies {
		attempted = append(attempted, strategy.Name)

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.exec.Run(attemptCtx, strategy.Args(inputPath, outputPath, expectedDuration))
		cancel()

		if err == nil && fileutil.NonEmpty(outputPath) {
			c.logger.Debug("repair strategy succeeded", logging.String("strategy", strategy.Name))
			return strategy.Name, nil
		}

		c.logger.Debug("repair strategy failed",
			logging.String("strategy", strategy.Name),
			logging.Error(err))
		_ = os.Remove(outputPath)

		if ctx.Err() != nil {
			break
		}
	}
	return "", services.Wrap(services.ErrRepairExhausted, "repair", "",
		"strategies tried: "+strings.Join(attempted, ", "), ctx.Err())
}
