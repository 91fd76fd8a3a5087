package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteFragment writes a fragment file with wire-format naming into dir and
// returns its path.
func WriteFragment(t testing.TB, dir, group string, start, end float64, sequence int) string {
	t.Helper()

	name := fragmentName(group, start, end, sequence)
	path := filepath.Join(dir, name)
	WriteFile(t, path, 64)
	return path
}

func fragmentName(group string, start, end float64, sequence int) string {
	return fmt.Sprintf("P%s-%.3f-%.3f-%04d.m4s", group, start, end, sequence)
}
