package planner

import "strings"

// Status represents the lifecycle of one segment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Segment is one planned time slice of an asset. Index defines final
// ordering; Start/End are seconds relative to the asset.
type Segment struct {
	Index        int
	Start        float64
	End          float64
	OutputPath   string
	Status       Status
	ErrorMessage string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Plan is the ordered segment sequence for one asset plus its output target.
// Segment indices are a dense 0..N-1 range.
type Plan struct {
	AssetPath      string
	AssetDuration  float64
	SegmentSeconds float64
	Dir            string
	OutputPath     string
	Segments       []Segment
}

// Pending returns the segments still awaiting processing.
func (p *Plan) Pending() []*Segment {
	var out []*Segment
	for i := range p.Segments {
		if p.Segments[i].Status == StatusPending {
			out = append(out, &p.Segments[i])
		}
	}
	return out
}

// CountByStatus tallies segments per status.
func (p *Plan) CountByStatus() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, seg := range p.Segments {
		counts[seg.Status]++
	}
	return counts
}

// AllCompleted reports whether every segment reached StatusCompleted.
func (p *Plan) AllCompleted() bool {
	for _, seg := range p.Segments {
		if seg.Status != StatusCompleted {
			return false
		}
	}
	return len(p.Segments) > 0
}
