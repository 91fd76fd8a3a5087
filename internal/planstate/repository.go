package planstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vrecon/internal/fileutil"
	"vrecon/internal/planner"
)

// SnapshotFileName is the status snapshot file kept inside each plan directory.
const SnapshotFileName = "plan_status.json"

// SegmentRecord is the serialized form of one segment's state. Field names
// match the upstream snapshot format.
type SegmentRecord struct {
	Index        int     `json:"segment_index"`
	Start        float64 `json:"start_time"`
	End          float64 `json:"end_time"`
	Duration     float64 `json:"duration"`
	OutputPath   string  `json:"output_file"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Repository loads and saves plan status snapshots. Implementations must make
// Save atomic with respect to concurrent readers.
type Repository interface {
	Load(plan *planner.Plan) error
	Save(plan *planner.Plan) error
}

// ErrNoSnapshot is returned by Load when no snapshot has been written yet.
var ErrNoSnapshot = errors.New("no plan snapshot")

// FileRepository stores each plan's snapshot as JSON next to its segments,
// written with write-to-temp + rename.
type FileRepository struct{}

// NewFileRepository creates a file-backed repository.
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// SnapshotPath returns the snapshot file location for a plan directory.
func SnapshotPath(planDir string) string {
	return filepath.Join(planDir, SnapshotFileName)
}

// Load applies a persisted snapshot onto the plan. Records are matched by
// segment index; indices outside the plan are ignored.
func (r *FileRepository) Load(plan *planner.Plan) error {
	data, err := os.ReadFile(SnapshotPath(plan.Dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoSnapshot
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	var records []SegmentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	apply(plan, records)
	return nil
}

// Save persists the plan's current segment states atomically.
func (r *FileRepository) Save(plan *planner.Plan) error {
	records := collect(plan)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := fileutil.WriteFileAtomic(SnapshotPath(plan.Dir), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// MemoryRepository keeps snapshots in memory. Used in tests in place of the
// file-backed store.
type MemoryRepository struct {
	mu      sync.Mutex
	records []SegmentRecord
	saves   int
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(plan *planner.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		return ErrNoSnapshot
	}
	apply(plan, r.records)
	return nil
}

func (r *MemoryRepository) Save(plan *planner.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = collect(plan)
	r.saves++
	return nil
}

// Saves reports how many snapshots have been persisted.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)

func collect(plan *planner.Plan) []SegmentRecord {
	records := make([]SegmentRecord, 0, len(plan.Segments))
	for _, seg := range plan.Segments {
		records = append(records, SegmentRecord{
			Index:        seg.Index,
			Start:        seg.Start,
			End:          seg.End,
			Duration:     seg.Duration(),
			OutputPath:   seg.OutputPath,
			Status:       string(seg.Status),
			ErrorMessage: seg.ErrorMessage,
		})
	}
	return records
}

func apply(plan *planner.Plan, records []SegmentRecord) {
	byIndex := make(map[int]SegmentRecord, len(records))
	for _, record := range records {
		byIndex[record.Index] = record
	}
	for i := range plan.Segments {
		record, ok := byIndex[plan.Segments[i].Index]
		if !ok {
			continue
		}
		if status, valid := planner.ParseStatus(record.Status); valid {
			plan.Segments[i].Status = status
		}
		plan.Segments[i].ErrorMessage = record.ErrorMessage
	}
}
