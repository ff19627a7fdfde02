package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// maxLineBytes bounds a single record line.
const maxLineBytes = 64 * 1024

// ReadLines returns the non-blank lines of r in file order, trimmed of
// surrounding whitespace.
func ReadLines(r io.Reader) ([]string, error) {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 4096), maxLineBytes)

	var lines []string
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// Groups holds the lines of each known channel in input order.
type Groups struct {
	Lines   map[telemetry.Channel][]string
	Skipped int
}

// Group partitions lines by their type tag. Lines with unknown or
// unparseable tags are skipped and counted.
func Group(lines []string) Groups {
	g := Groups{Lines: make(map[telemetry.Channel][]string)}
	for _, line := range lines {
		tag, err := telemetry.Tag(line)
		if err != nil || !tag.Known() {
			g.Skipped++
			continue
		}
		g.Lines[tag] = append(g.Lines[tag], line)
	}
	return g
}
