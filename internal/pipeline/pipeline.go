package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"vrecon/internal/fileutil"
	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/planner"
	"vrecon/internal/planstate"
	"vrecon/internal/services"
	"vrecon/internal/workerpool"
)

// Result enumerates the outcome of one pipeline run.
type Result struct {
	RunID          string
	Completed      []int
	Failed         []int
	Resumed        []int
	TranscodeCalls int
	Elapsed        time.Duration
}

// Success reports whether every segment of the plan completed.
func (r Result) Success() bool {
	return len(r.Failed) == 0
}

// Options configures pipeline construction.
type Options struct {
	Transcoder ffmpeg.Transcoder
	Repository planstate.Repository
	Pool       workerpool.Options
	Logger     *slog.Logger
}

// Pipeline executes segment plans. One pipeline may run many plans, but each
// plan has a single driver at a time, enforced by the plan directory lock.
type Pipeline struct {
	transcoder ffmpeg.Transcoder
	repo       planstate.Repository
	poolOpts   workerpool.Options
	logger     *slog.Logger
}

// New constructs a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Transcoder == nil {
		return nil, errors.New("pipeline requires a transcoder")
	}
	if opts.Repository == nil {
		return nil, errors.New("pipeline requires a plan state repository")
	}
	return &Pipeline{
		transcoder: opts.Transcoder,
		repo:       opts.Repository,
		poolOpts:   opts.Pool,
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

type segmentEvent struct {
	index    int
	status   planner.Status
	err      error
	terminal bool
}

// Run executes every pending segment of the plan with up to concurrency
// initial workers. Segments whose expected output already exists non-empty
// are marked completed without re-processing, so re-running the same plan
// does no redundant work. The status snapshot is persisted after every
// status change; only this driver goroutine mutates the plan.
func (p *Pipeline) Run(ctx context.Context, plan *planner.Plan, profile ffmpeg.Profile, concurrency int) (Result, error) {
	started := time.Now()
	result := Result{RunID: uuid.NewString()}

	runCtx := services.WithRunID(services.WithStage(services.WithAsset(ctx, plan.AssetPath), "transcode"), result.RunID)
	logger := logging.WithContext(runCtx, p.logger)

	lock, err := planstate.Acquire(plan.Dir)
	if err != nil {
		return result, err
	}
	defer lock.Release()

	// Carry over error details from a previous run when present.
	if err := p.repo.Load(plan); err != nil && !errors.Is(err, planstate.ErrNoSnapshot) {
		return result, fmt.Errorf("load plan state: %w", err)
	}

	// Existing non-empty outputs are the resume source of truth, not the
	// snapshot: output files survive crashes that the snapshot may not.
	pending := make([]*planner.Segment, 0, len(plan.Segments))
	for i := range plan.Segments {
		seg := &plan.Segments[i]
		if fileutil.NonEmpty(seg.OutputPath) {
			if seg.Status != planner.StatusCompleted {
				seg.Status = planner.StatusCompleted
				seg.ErrorMessage = ""
			}
			result.Resumed = append(result.Resumed, seg.Index)
			continue
		}
		seg.Status = planner.StatusPending
		pending = append(pending, seg)
	}
	if err := p.repo.Save(plan); err != nil {
		return result, fmt.Errorf("persist plan state: %w", err)
	}

	logger.Info("plan started",
		logging.Int("segments", len(plan.Segments)),
		logging.Int("pending", len(pending)),
		logging.Int("resumed", len(result.Resumed)))

	if len(pending) > 0 {
		if err := p.execute(runCtx, logger, plan, pending, profile, concurrency, &result); err != nil {
			return result, err
		}
	}

	for _, seg := range plan.Segments {
		switch seg.Status {
		case planner.StatusCompleted:
			result.Completed = append(result.Completed, seg.Index)
		case planner.StatusFailed:
			result.Failed = append(result.Failed, seg.Index)
		}
	}
	sort.Ints(result.Completed)
	sort.Ints(result.Failed)
	result.Elapsed = time.Since(started)

	logger.Info("plan finished",
		logging.Int("completed", len(result.Completed)),
		logging.Int("failed", len(result.Failed)),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, plan *planner.Plan, pending []*planner.Segment, profile ffmpeg.Profile, concurrency int, result *Result) error {
	pool := workerpool.New(p.poolOpts)
	pool.Start(concurrency)
	defer pool.Stop()

	events := make(chan segmentEvent, len(pending)*2)
	for _, seg := range pending {
		seg := seg
		result.TranscodeCalls++
		pool.Submit(func() {
			p.transcodeSegment(ctx, plan.AssetPath, seg, profile, events)
		})
	}

	// Single-writer discipline: workers report through the channel, only
	// this loop touches segment state or the snapshot.
	byIndex := make(map[int]*planner.Segment, len(pending))
	for _, seg := range pending {
		byIndex[seg.Index] = seg
	}
	remaining := len(pending)
	var persistErr error
	for remaining > 0 {
		event := <-events
		seg := byIndex[event.index]
		seg.Status = event.status
		if event.err != nil {
			seg.ErrorMessage = event.err.Error()
		} else if event.status == planner.StatusCompleted {
			seg.ErrorMessage = ""
		}
		if err := p.repo.Save(plan); err != nil && persistErr == nil {
			persistErr = fmt.Errorf("persist plan state: %w", err)
		}
		if event.terminal {
			remaining--
			if event.err != nil {
				logger.Warn("segment failed",
					logging.Int(logging.FieldSegment, event.index),
					logging.Error(event.err))
			}
		}
	}
	pool.Join()
	return persistErr
}

func (p *Pipeline) transcodeSegment(ctx context.Context, inputPath string, seg *planner.Segment, profile ffmpeg.Profile, events chan<- segmentEvent) {
	events <- segmentEvent{index: seg.Index, status: planner.StatusProcessing}

	err := p.transcoder.Transcode(ctx, ffmpeg.TranscodeRequest{
		InputPath:  inputPath,
		StartTime:  seg.Start,
		Duration:   seg.Duration(),
		Profile:    profile,
		OutputPath: seg.OutputPath,
	})
	if err == nil && !fileutil.NonEmpty(seg.OutputPath) {
		err = services.Wrap(services.ErrTranscode, "transcode", "verify", "output file is empty or missing", nil)
	}

	if err != nil {
		events <- segmentEvent{index: seg.Index, status: planner.StatusFailed, err: err, terminal: true}
		return
	}
	events <- segmentEvent{index: seg.Index, status: planner.StatusCompleted, terminal: true}
}
