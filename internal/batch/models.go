// Package batch fans pipeline and merge jobs across the entries of a
// directory, isolating per-item failures and recording every run in a small
// SQLite report store.
package batch

import "time"

// RunKind distinguishes what a batch run processed.
type RunKind string

const (
	RunKindTranscode RunKind = "transcode"
	RunKindMerge     RunKind = "merge"
)

// ItemStatus is the terminal status of one batch item.
type ItemStatus string

const (
	ItemCompleted ItemStatus = "completed"
	ItemFailed    ItemStatus = "failed"
)

// Run is one batch invocation over a directory.
type Run struct {
	ID         string
	Kind       RunKind
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Completed  int
	Failed     int
}

// Item is one asset or fragment folder processed within a run.
type Item struct {
	ID         int64
	RunID      string
	SourcePath string
	OutputPath string
	Status     ItemStatus
	Error      string
	Elapsed    time.Duration
}

// VideoExtensions are the asset container suffixes a transcode batch picks up.
var VideoExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".m4v", ".webm"}
