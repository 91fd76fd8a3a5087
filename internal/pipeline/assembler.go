package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"vrecon/internal/fileutil"
	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/planner"
	"vrecon/internal/services"
)

// Assembler concatenates a fully-completed plan's segment outputs into the
// final asset. Index order is the single source of truth for final ordering;
// completion order and filesystem iteration order are irrelevant.
type Assembler struct {
	concat ffmpeg.Concatenator
	logger *slog.Logger
}

// NewAssembler constructs an assembler.
func NewAssembler(concat ffmpeg.Concatenator, logger *slog.Logger) *Assembler {
	return &Assembler{
		concat: concat,
		logger: logging.NewComponentLogger(logger, "assembler"),
	}
}

// Assemble joins segment outputs in index order into plan.OutputPath. Any
// segment that is not completed, or whose output is missing or empty, fails
// the whole assembly up front; a partial set is never merged.
func (a *Assembler) Assemble(ctx context.Context, plan *planner.Plan) error {
	var missing []int
	for _, seg := range plan.Segments {
		if seg.Status != planner.StatusCompleted || !fileutil.NonEmpty(seg.OutputPath) {
			missing = append(missing, seg.Index)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return services.Wrap(services.ErrIncompleteInputs, "assemble", "precheck",
			fmt.Sprintf("segments not ready: %v", missing), nil)
	}

	ordered := make([]planner.Segment, len(plan.Segments))
	copy(ordered, plan.Segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	paths := make([]string, 0, len(ordered))
	for _, seg := range ordered {
		paths = append(paths, seg.OutputPath)
	}

	a.logger.Info("assembling plan",
		logging.Int("segments", len(paths)),
		logging.String("output", plan.OutputPath))

	if err := a.concat.Concat(ctx, paths, plan.OutputPath); err != nil {
		return err
	}
	if !fileutil.NonEmpty(plan.OutputPath) {
		return services.Wrap(services.ErrConcat, "assemble", "verify", "final output is empty or missing", nil)
	}
	return nil
}
