// Package offsets loads the per-camera frame offsets that align each
// camera's local clock to the global timeline.
package offsets

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Table maps camera ids to signed frame offsets. Cameras without an entry
// have offset 0. Read-only after Load.
type Table struct {
	entries map[string]int
	skipped int
}

// Load parses a plain-text offsets file with one "<cameraId> <offset>" pair
// per line. A missing file is not an error: all cameras then default to 0.
// Malformed lines are skipped and counted, never fatal.
func Load(path string) (*Table, error) {
	t := &Table{entries: make(map[string]int)}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to open offsets file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 2 {
			t.skipped++
			continue
		}

		offset, err := strconv.Atoi(parts[1])
		if err != nil {
			t.skipped++
			continue
		}

		t.entries[parts[0]] = offset
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offsets file: %w", err)
	}

	return t, nil
}

// Get returns the offset for a camera, defaulting to 0.
func (t *Table) Get(camera string) int {
	return t.entries[camera]
}

// Len returns the number of loaded entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Skipped returns the count of malformed lines dropped during Load.
func (t *Table) Skipped() int {
	return t.skipped
}
