package merge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"vrecon/internal/logging"
)

// InitFileName is the optional group-level initializer container. When
// present in a fragment folder it is written first, before any fragment
// bytes.
const InitFileName = "init.mp4"

// ScanResult is the outcome of scanning one fragment folder.
type ScanResult struct {
	Groups   []Group
	InitPath string
	Skipped  int
}

// Fragments reports the total number of parsed fragments across all groups.
func (r ScanResult) Fragments() int {
	total := 0
	for _, group := range r.Groups {
		total += len(group.Fragments)
	}
	return total
}

// Scan parses every fragment filename in dir into groups sorted by group
// identifier. Non-matching names are logged and counted, not fatal. Each
// group's fragments come back in canonical (start, sequence) order.
func Scan(dir string, logger *slog.Logger) (ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan fragment folder: %w", err)
	}

	byID := make(map[string]*Group)
	result := ScanResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == InitFileName {
			result.InitPath = filepath.Join(dir, name)
			continue
		}
		if !strings.HasSuffix(name, ".m4s") {
			continue
		}
		fragment, ok := ParseFragmentName(name)
		if !ok {
			logger.Warn("skipping unparseable fragment name", logging.String("file", name))
			result.Skipped++
			continue
		}
		fragment.Path = filepath.Join(dir, name)
		group, exists := byID[fragment.Group]
		if !exists {
			group = &Group{ID: fragment.Group}
			byID[fragment.Group] = group
		}
		group.Fragments = append(group.Fragments, fragment)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sortGroupIDs(ids)

	for _, id := range ids {
		group := byID[id]
		group.Sort()
		result.Groups = append(result.Groups, *group)
	}
	return result, nil
}

// sortGroupIDs orders identifiers numerically so group P10 follows P9 rather
// than P1.
func sortGroupIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		if aErr == nil && bErr == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
}
