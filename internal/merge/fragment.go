// Package merge reassembles externally produced stream fragments into
// continuous containers. Fragment filenames carry their own metadata in a
// fixed wire format set by the upstream producer:
//
//	P<group>-<start>-<end>-<sequence>.m4s
//
// where start and end are decimal seconds and sequence is a fixed-width
// integer. Files that do not match the pattern are skipped, never fatal.
package merge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"vrecon/internal/services"
)

var fragmentPattern = regexp.MustCompile(`^P(\d+)-(\d+\.?\d*)-(\d+\.?\d*)-(\d+)\.m4s$`)

// Fragment is one raw chunk of a fragmented stream. Immutable once parsed.
type Fragment struct {
	Group    string
	Start    float64
	End      float64
	Sequence int
	Path     string
}

// ParseFragmentName parses a bare filename into a Fragment. The returned
// Fragment has no Path; the caller fills it in. ok is false when the name
// does not match the wire format.
func ParseFragmentName(name string) (Fragment, bool) {
	match := fragmentPattern.FindStringSubmatch(name)
	if match == nil {
		return Fragment{}, false
	}
	start, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return Fragment{}, false
	}
	end, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return Fragment{}, false
	}
	sequence, err := strconv.Atoi(match[4])
	if err != nil {
		return Fragment{}, false
	}
	return Fragment{
		Group:    match[1],
		Start:    start,
		End:      end,
		Sequence: sequence,
	}, true
}

// Group holds every fragment sharing one group identifier, sorted by
// (start time, sequence number).
type Group struct {
	ID        string
	Fragments []Fragment
}

// Sort orders the fragments by start time, breaking ties by sequence number.
// This order is the single source of truth for merging, regardless of
// discovery order.
func (g *Group) Sort() {
	sort.Slice(g.Fragments, func(i, j int) bool {
		a, b := g.Fragments[i], g.Fragments[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Sequence < b.Sequence
	})
}

// Validate checks the ordering invariant over the sorted fragments: start
// times never regress, sequence numbers are strictly increasing, and equal
// start times never repeat a sequence number. Groups with at most one
// fragment are trivially valid. A violation fails the whole group before any
// byte is written.
func (g *Group) Validate() error {
	if len(g.Fragments) <= 1 {
		return nil
	}
	for i := 1; i < len(g.Fragments); i++ {
		prev, curr := g.Fragments[i-1], g.Fragments[i]
		if curr.Start < prev.Start {
			return services.Wrap(services.ErrSequenceViolation, "merge", "validate",
				fmt.Sprintf("group %s: start time regresses from %.3f to %.3f at sequence %d",
					g.ID, prev.Start, curr.Start, curr.Sequence), nil)
		}
		if curr.Sequence <= prev.Sequence {
			return services.Wrap(services.ErrSequenceViolation, "merge", "validate",
				fmt.Sprintf("group %s: sequence %d does not advance past %d (start %.3f)",
					g.ID, curr.Sequence, prev.Sequence, curr.Start), nil)
		}
	}
	return nil
}

// Duration is the group's time span: the last fragment's end time minus the
// first fragment's start time. Assumes the group is sorted.
func (g *Group) Duration() float64 {
	if len(g.Fragments) == 0 {
		return 0
	}
	return g.Fragments[len(g.Fragments)-1].End - g.Fragments[0].Start
}
