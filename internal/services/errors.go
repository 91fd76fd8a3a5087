package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProbe marks assets that could not be read or decoded by the prober.
	ErrProbe = errors.New("probe error")
	// ErrInvalidDuration marks assets whose probed duration is zero or negative.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrTranscode marks a per-segment transcode failure. Non-fatal to siblings.
	ErrTranscode = errors.New("transcode failure")
	// ErrIncompleteInputs marks an assembly attempt over a plan that is not
	// fully completed. Fatal for the plan; the caller must resolve.
	ErrIncompleteInputs = errors.New("incomplete inputs")
	// ErrSequenceViolation marks a fragment group whose ordering invariant is
	// broken. Fatal for the group before any merge is attempted.
	ErrSequenceViolation = errors.New("sequence violation")
	// ErrConcat marks a failed final or intermediate concatenation.
	ErrConcat = errors.New("concat error")
	// ErrRepairExhausted marks a container that no repair strategy could fix.
	ErrRepairExhausted = errors.New("repair exhausted")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPlanFatal reports whether an error aborts the whole plan or merge job
// rather than a single segment or fragment.
func IsPlanFatal(err error) bool {
	switch {
	case errors.Is(err, ErrIncompleteInputs),
		errors.Is(err, ErrSequenceViolation),
		errors.Is(err, ErrRepairExhausted),
		errors.Is(err, ErrConcat):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
