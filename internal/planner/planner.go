package planner

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"vrecon/internal/media/ffprobe"
	"vrecon/internal/services"
)

// New divides [0, asset.Duration) into segments of segmentSeconds, the last
// segment truncated to the remainder. The only side effect is creating dir.
// Output names derive from the asset name and a zero-padded index, so a
// resumed run recomputes them without reading any state file.
func New(asset ffprobe.MediaInfo, segmentSeconds float64, dir, outputPath string) (*Plan, error) {
	if asset.Duration <= 0 {
		return nil, services.Wrap(services.ErrInvalidDuration, "plan", "", fmt.Sprintf("duration %.3f", asset.Duration), nil)
	}
	if segmentSeconds <= 0 {
		return nil, services.Wrap(services.ErrInvalidDuration, "plan", "", fmt.Sprintf("segment length %.3f", segmentSeconds), nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plan directory: %w", err)
	}

	stem := assetStem(asset.Path)
	count := int(math.Ceil(asset.Duration / segmentSeconds))
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * segmentSeconds
		end := start + segmentSeconds
		if end > asset.Duration || i == count-1 {
			end = asset.Duration
		}
		segments = append(segments, Segment{
			Index:      i,
			Start:      start,
			End:        end,
			OutputPath: filepath.Join(dir, SegmentFileName(stem, i)),
			Status:     StatusPending,
		})
	}

	return &Plan{
		AssetPath:      asset.Path,
		AssetDuration:  asset.Duration,
		SegmentSeconds: segmentSeconds,
		Dir:            dir,
		OutputPath:     outputPath,
		Segments:       segments,
	}, nil
}

// SegmentFileName returns the deterministic output name for a segment index.
func SegmentFileName(stem string, index int) string {
	return fmt.Sprintf("%s_segment_%03d.mp4", stem, index)
}

func assetStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}
