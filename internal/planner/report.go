package planner

import (
	"os"

	"vrecon/internal/fileutil"
)

// Report aggregates the outcome of a plan's segments.
type Report struct {
	TotalSegments int
	Completed     int
	Failed        int
	Pending       int
	TotalDuration float64
	TotalBytes    int64
	Errors        []string
}

// Report summarizes segment statuses, durations, and on-disk sizes.
func (p *Plan) Report() Report {
	report := Report{TotalSegments: len(p.Segments)}
	for _, seg := range p.Segments {
		report.TotalDuration += seg.Duration()
		switch seg.Status {
		case StatusCompleted:
			report.Completed++
			report.TotalBytes += fileutil.FileSize(seg.OutputPath)
		case StatusFailed:
			report.Failed++
		default:
			report.Pending++
		}
		if seg.ErrorMessage != "" {
			report.Errors = append(report.Errors, seg.ErrorMessage)
		}
	}
	return report
}

// CleanupOutputs removes segment output files. Segment removal is always an
// explicit caller decision, never a pipeline side effect.
func (p *Plan) CleanupOutputs() int {
	removed := 0
	for _, seg := range p.Segments {
		if err := os.Remove(seg.OutputPath); err == nil {
			removed++
		}
	}
	return removed
}
