package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"vrecon/internal/logging"
	"vrecon/internal/merge"
	"vrecon/internal/pipeline"
)

// TranscodeRunner processes one asset end to end. Satisfied by
// pipeline.Service.
type TranscodeRunner interface {
	Process(ctx context.Context, assetPath, outputPath string) (*pipeline.Outcome, error)
}

// MergeRunner merges one fragment folder. Satisfied by merge.Merger.
type MergeRunner interface {
	Merge(ctx context.Context, dir, outputPath string) (*merge.Result, error)
}

// Summary is the in-memory report of one batch run.
type Summary struct {
	Run   Run
	Items []Item
}

// Success reports whether every item completed.
func (s *Summary) Success() bool {
	return s.Run.Failed == 0
}

// Coordinator walks a directory and fans independent jobs across its
// entries. One item failing never aborts the rest; a run always finishes
// with a recorded per-item report.
type Coordinator struct {
	store  *Store
	logger *slog.Logger
}

// NewCoordinator builds a coordinator. The store may be nil, in which case
// runs are reported in memory only.
func NewCoordinator(store *Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logging.NewComponentLogger(logger, "batch"),
	}
}

// TranscodeDirectory processes every video file directly inside dir.
func (c *Coordinator) TranscodeDirectory(ctx context.Context, dir string, runner TranscodeRunner) (*Summary, error) {
	assets, err := scanVideoFiles(dir)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, RunKindTranscode, dir, assets, func(ctx context.Context, source string) (string, error) {
		outcome, err := runner.Process(ctx, source, "")
		if outcome != nil {
			return outcome.OutputPath, err
		}
		return "", err
	})
}

// MergeDirectory merges every fragment subfolder of dir, writing each
// result next to its folder.
func (c *Coordinator) MergeDirectory(ctx context.Context, dir string, runner MergeRunner) (*Summary, error) {
	folders, err := scanSubdirectories(dir)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, RunKindMerge, dir, folders, func(ctx context.Context, source string) (string, error) {
		outputPath := filepath.Join(dir, filepath.Base(source)+".mp4")
		result, err := runner.Merge(ctx, source, outputPath)
		if result != nil && result.OutputPath != "" {
			outputPath = result.OutputPath
		}
		return outputPath, err
	})
}

func (c *Coordinator) run(ctx context.Context, kind RunKind, root string, sources []string, process func(context.Context, string) (string, error)) (*Summary, error) {
	summary := &Summary{Run: Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Root:      root,
		StartedAt: time.Now().UTC(),
	}}
	logger := c.logger.With(
		logging.String(logging.FieldRunID, summary.Run.ID),
		logging.String("kind", string(kind)))

	if c.store != nil {
		if err := c.store.BeginRun(ctx, summary.Run); err != nil {
			return nil, err
		}
	}
	logger.Info("batch run started",
		logging.String("root", root),
		logging.Int("items", len(sources)))

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			break
		}
		started := time.Now()
		outputPath, err := process(ctx, source)

		item := Item{
			RunID:      summary.Run.ID,
			SourcePath: source,
			OutputPath: outputPath,
			Status:     ItemCompleted,
			Elapsed:    time.Since(started),
		}
		if err != nil {
			item.Status = ItemFailed
			item.Error = err.Error()
			summary.Run.Failed++
			logger.Error("batch item failed",
				logging.String("source", source),
				logging.Error(err))
		} else {
			summary.Run.Completed++
			logger.Info("batch item completed",
				logging.String("source", source),
				logging.Duration("elapsed", item.Elapsed))
		}
		summary.Items = append(summary.Items, item)

		if c.store != nil {
			if err := c.store.RecordItem(ctx, item); err != nil {
				logger.Warn("failed to record batch item", logging.Error(err))
			}
		}
	}

	summary.Run.FinishedAt = time.Now().UTC()
	if c.store != nil {
		if err := c.store.FinishRun(ctx, summary.Run.ID, summary.Run.Completed, summary.Run.Failed, summary.Run.FinishedAt); err != nil {
			logger.Warn("failed to finish batch run", logging.Error(err))
		}
	}
	logger.Info("batch run finished",
		logging.Int("completed", summary.Run.Completed),
		logging.Int("failed", summary.Run.Failed))
	return summary, nil
}

// scanVideoFiles lists the video assets directly inside dir, sorted by name.
func scanVideoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var assets []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(VideoExtensions, ext) {
			assets = append(assets, filepath.Join(dir, entry.Name()))
		}
	}
	return assets, nil
}

func scanSubdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, filepath.Join(dir, entry.Name()))
		}
	}
	return folders, nil
}
