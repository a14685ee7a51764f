package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrEmptyMap   = errors.New("map has no rows or no columns")
	ErrRowTooLong = errors.New("map row wider than first row")
)

// Load reads a map. The first line fixes the column count; shorter rows are
// padded with outside cells and longer rows are rejected.
func Load(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read map: %w", err)
	}

	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, ErrEmptyMap
	}

	cols := len(lines[0])
	g := New(len(lines), cols)

	for y, line := range lines {
		if len(line) > cols {
			return nil, fmt.Errorf("row %d has %d columns, want at most %d: %w", y, len(line), cols, ErrRowTooLong)
		}
		for x := 0; x < len(line); x++ {
			kind, ok := KindFromRune(line[x])
			if !ok {
				return nil, fmt.Errorf("invalid map character %q at row %d column %d", line[x], y, x)
			}
			g.SetTerrain(Point{X: x, Y: y}, kind)
		}
	}

	return g, nil
}

func LoadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file: %w", err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load map %s: %w", path, err)
	}
	return g, nil
}
