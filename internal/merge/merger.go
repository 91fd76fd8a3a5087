package merge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"vrecon/internal/fileutil"
	"vrecon/internal/logging"
	"vrecon/internal/media/ffmpeg"
	"vrecon/internal/services"
)

// State tracks a merge job through its lifecycle.
type State string

const (
	StateScanning      State = "scanning"
	StateValidating    State = "validating"
	StateConcatenating State = "concatenating"
	StateRepairing     State = "repairing"
	StateMerged        State = "merged"
	StateFailed        State = "failed"
)

const (
	// DefaultAppendRetries bounds retries of one fragment append.
	DefaultAppendRetries = 3
	// DefaultAppendBackoff is the pause between append retries.
	DefaultAppendBackoff = 200 * time.Millisecond
)

// Repairer remediates a malformed merged container. Satisfied by
// repair.Cascade.
type Repairer interface {
	Repair(ctx context.Context, inputPath, outputPath string, expectedDuration float64) (string, error)
}

// Options configures a Merger.
type Options struct {
	Concat        ffmpeg.Concatenator
	Repair        Repairer
	AppendRetries int
	AppendBackoff time.Duration
	Logger        *slog.Logger
}

// Result summarizes one merge job.
type Result struct {
	JobID      string
	State      State
	OutputPath string
	Groups     int
	Fragments  int
	Skipped    int
	// Repairs maps group identifier to the repair strategy that fixed its
	// intermediate container.
	Repairs map[string]string
	Elapsed time.Duration
}

// Merger turns a folder of raw fragments into one continuous container. A
// job scans the folder, validates every group's ordering before writing any
// bytes, byte-appends each group into an intermediate container, repairs the
// container, and finally concatenates groups in identifier order. Temporary
// intermediates live in a job-scoped directory that is removed on exit,
// success or failure.
type Merger struct {
	concat        ffmpeg.Concatenator
	repair        Repairer
	appendRetries int
	appendBackoff time.Duration
	logger        *slog.Logger
}

// New constructs a Merger, applying defaults for unset options.
func New(opts Options) *Merger {
	merger := &Merger{
		concat:        opts.Concat,
		repair:        opts.Repair,
		appendRetries: opts.AppendRetries,
		appendBackoff: opts.AppendBackoff,
		logger:        logging.NewComponentLogger(opts.Logger, "merge"),
	}
	if merger.appendRetries <= 0 {
		merger.appendRetries = DefaultAppendRetries
	}
	if merger.appendBackoff <= 0 {
		merger.appendBackoff = DefaultAppendBackoff
	}
	return merger
}

// Merge runs a full merge job over dir, writing the final container to
// outputPath. When outputPath is empty the output is named after the folder
// and placed inside it. The returned Result reflects the final state even
// when an error is returned.
func (m *Merger) Merge(ctx context.Context, dir, outputPath string) (*Result, error) {
	return m.run(ctx, dir, outputPath, false)
}

// DryRun scans and validates dir without writing any bytes. The result
// reports what a real merge would process.
func (m *Merger) DryRun(ctx context.Context, dir string) (*Result, error) {
	return m.run(ctx, dir, "", true)
}

func (m *Merger) run(ctx context.Context, dir, outputPath string, dryRun bool) (*Result, error) {
	started := time.Now()
	result := &Result{
		JobID:   uuid.NewString(),
		State:   StateScanning,
		Repairs: make(map[string]string),
	}
	logger := m.logger.With(logging.String("job_id", result.JobID))

	fail := func(err error) (*Result, error) {
		result.State = StateFailed
		result.Elapsed = time.Since(started)
		return result, err
	}

	scan, err := Scan(dir, logger)
	if err != nil {
		return fail(services.Wrap(services.ErrConcat, "merge", "scan", dir, err))
	}
	result.Groups = len(scan.Groups)
	result.Fragments = scan.Fragments()
	result.Skipped = scan.Skipped
	if len(scan.Groups) == 0 {
		return fail(services.Wrap(services.ErrConcat, "merge", "scan",
			"no fragment files found in "+dir, nil))
	}
	logger.Info("scanned fragment folder",
		logging.Int("groups", result.Groups),
		logging.Int("fragments", result.Fragments),
		logging.Int("skipped", result.Skipped))

	result.State = StateValidating
	for i := range scan.Groups {
		if err := scan.Groups[i].Validate(); err != nil {
			return fail(err)
		}
	}

	if dryRun {
		result.State = StateMerged
		result.Elapsed = time.Since(started)
		logger.Info("dry run complete", logging.Int("groups", result.Groups))
		return result, nil
	}

	if outputPath == "" {
		outputPath = filepath.Join(dir, filepath.Base(dir)+".mp4")
	}
	result.OutputPath = outputPath

	tempDir := filepath.Join(os.TempDir(), "vrecon-merge-"+result.JobID)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fail(services.Wrap(services.ErrConcat, "merge", "temp dir", "", err))
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warn("failed to remove temp dir",
				logging.String("dir", tempDir), logging.Error(err))
		}
	}()

	repaired := make([]string, 0, len(scan.Groups))
	for i := range scan.Groups {
		group := &scan.Groups[i]
		if err := ctx.Err(); err != nil {
			return fail(services.Wrap(services.ErrConcat, "merge", "cancelled", group.ID, err))
		}

		result.State = StateConcatenating
		intermediate := filepath.Join(tempDir, "merged_"+group.ID+".m4s")
		if err := m.concatenateGroup(group, scan.InitPath, intermediate, logger); err != nil {
			return fail(err)
		}

		result.State = StateRepairing
		repairedPath := filepath.Join(tempDir, "repaired_"+group.ID+".mp4")
		strategy, err := m.repair.Repair(ctx, intermediate, repairedPath, group.Duration())
		if err != nil {
			return fail(err)
		}
		result.Repairs[group.ID] = strategy
		repaired = append(repaired, repairedPath)
		logger.Info("group merged",
			logging.String(logging.FieldGroup, group.ID),
			logging.Int("fragments", len(group.Fragments)),
			logging.Float64("duration", group.Duration()),
			logging.String("strategy", strategy))
	}

	if err := m.finalize(ctx, repaired, outputPath); err != nil {
		return fail(err)
	}

	result.State = StateMerged
	result.Elapsed = time.Since(started)
	logger.Info("merge complete",
		logging.String("output", outputPath),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// concatenateGroup byte-appends the group's fragments, in validated order,
// into targetPath. When an initializer container exists it is copied in
// first.
func (m *Merger) concatenateGroup(group *Group, initPath, targetPath string, logger *slog.Logger) error {
	if initPath != "" {
		if err := fileutil.CopyFile(initPath, targetPath); err != nil {
			return services.Wrap(services.ErrConcat, "merge", "init copy", group.ID, err)
		}
	}
	for _, fragment := range group.Fragments {
		if err := m.appendFile(targetPath, fragment.Path); err != nil {
			return services.Wrap(services.ErrConcat, "merge", "append",
				filepath.Base(fragment.Path), err)
		}
	}
	if !fileutil.NonEmpty(targetPath) {
		return services.Wrap(services.ErrConcat, "merge", "append",
			"group "+group.ID+" produced an empty container", nil)
	}
	logger.Debug("group concatenated",
		logging.String(logging.FieldGroup, group.ID),
		logging.Int64("bytes", fileutil.FileSize(targetPath)))
	return nil
}

// appendFile appends sourcePath's bytes to targetPath, retrying transient
// I/O failures with a short backoff.
func (m *Merger) appendFile(targetPath, sourcePath string) error {
	var lastErr error
	for attempt := 1; attempt <= m.appendRetries; attempt++ {
		lastErr = appendOnce(targetPath, sourcePath)
		if lastErr == nil {
			return nil
		}
		m.logger.Warn("fragment append failed",
			logging.String("file", filepath.Base(sourcePath)),
			logging.Int("attempt", attempt),
			logging.Error(lastErr))
		if attempt < m.appendRetries {
			time.Sleep(m.appendBackoff)
		}
	}
	return fmt.Errorf("after %d attempts: %w", m.appendRetries, lastErr)
}

func appendOnce(targetPath, sourcePath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}

// finalize produces the job output: a single group is moved into place, and
// multiple groups are concatenated in identifier order.
func (m *Merger) finalize(ctx context.Context, repaired []string, outputPath string) error {
	if len(repaired) == 1 {
		if err := moveFile(repaired[0], outputPath); err != nil {
			return services.Wrap(services.ErrConcat, "merge", "finalize", "", err)
		}
	} else {
		if err := m.concat.Concat(ctx, repaired, outputPath); err != nil {
			return err
		}
	}
	if !fileutil.NonEmpty(outputPath) {
		return services.Wrap(services.ErrConcat, "merge", "finalize",
			"final output is empty or missing", nil)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy-and-delete when the
// paths live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
