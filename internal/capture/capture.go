// Package capture records raw telemetry lines from the watch bridge's serial
// port into files for later batch reconstruction. Lines are written as
// received; nothing is decoded or filtered online.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/timeutil"
)

// Options bound a capture. Zero values mean unbounded.
type Options struct {
	// Commands are written to the port, newline terminated, before reading.
	Commands    []string
	MaxLines    int
	MaxDuration time.Duration
	Clock       timeutil.Clock
}

// Stats counts what a capture recorded.
type Stats struct {
	Lines      int
	PerChannel map[telemetry.Channel]int
	// Unknown counts lines whose type tag is not a known channel. They are
	// still recorded.
	Unknown int
}

func (s *Stats) record(line string) {
	s.Lines++
	tag, err := telemetry.Tag(line)
	if err != nil || !tag.Known() {
		s.Unknown++
		return
	}
	s.PerChannel[tag]++
}

// SendCommand writes one command line to the port.
func SendCommand(w io.Writer, command string) error {
	line := strings.TrimSpace(command) + "\n"
	n, err := io.WriteString(w, line)
	if err != nil {
		return fmt.Errorf("failed to write command %q: %w", command, err)
	}
	if n != len(line) {
		return fmt.Errorf("short write of command %q", command)
	}
	return nil
}

// Capture copies non-blank lines from port to out until the port closes,
// ctx ends or a limit in opts is reached. Reaching a limit or the end of the
// port is not an error; cancellation returns ctx.Err() with the stats so far.
func Capture(ctx context.Context, port io.ReadWriter, out io.Writer, opts Options) (Stats, error) {
	stats := Stats{PerChannel: make(map[telemetry.Channel]int)}
	for _, cmd := range opts.Commands {
		if err := SendCommand(port, cmd); err != nil {
			return stats, err
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	var deadline <-chan time.Time
	if opts.MaxDuration > 0 {
		deadline = clock.After(opts.MaxDuration)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)
	// Scan blocks on the port, so it runs apart from the select loop.
	go func() {
		defer close(lineChan)
		scan := bufio.NewScanner(port)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	w := bufio.NewWriter(out)
	defer w.Flush()
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()

		case <-deadline:
			monitoring.Logf("capture: duration limit %s reached", opts.MaxDuration)
			return stats, w.Flush()

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return stats, fmt.Errorf("serial read failed: %w", err)
				default:
				}
				return stats, w.Flush()
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, err := w.WriteString(line + "\n"); err != nil {
				return stats, fmt.Errorf("failed to record line: %w", err)
			}
			stats.record(line)
			if opts.MaxLines > 0 && stats.Lines >= opts.MaxLines {
				return stats, w.Flush()
			}
		}
	}
}
