// Command wearable-capture records raw telemetry lines from the watch
// bridge's serial port to a file for later reconstruction.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/wearable.report/internal/capture"
	"github.com/banshee-data/wearable.report/internal/security"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/timeutil"
	"github.com/banshee-data/wearable.report/internal/version"
)

var (
	port        = flag.String("port", "/dev/ttyUSB0", "Serial port of the watch bridge")
	baud        = flag.Int("baud", capture.DefaultBaudRate, "Baud rate")
	parity      = flag.String("parity", "N", "Parity: N, E or O")
	outDir      = flag.String("out", ".", "Output directory")
	name        = flag.String("name", "", "Output file name (default capture_<UTC time>.txt)")
	commands    = flag.String("commands", "", "Comma-separated commands sent before capturing")
	maxLines    = flag.Int("max-lines", 0, "Stop after this many lines (0 = unlimited)")
	duration    = flag.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	listPorts   = flag.Bool("list", false, "List serial ports and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	switch {
	case *showVersion:
		fmt.Println(version.String("wearable-capture"))
		return
	case *listPorts:
		ports, err := capture.ListPorts()
		if err != nil {
			log.Fatalf("failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := captureConfig{
		portPath: *port,
		portOpts: capture.PortOptions{BaudRate: *baud, Parity: *parity},
		outDir:   *outDir,
		fileName: *name,
		opts: capture.Options{
			Commands:    splitCommands(*commands),
			MaxLines:    *maxLines,
			MaxDuration: *duration,
		},
	}
	if err := record(ctx, cfg, capture.OpenSerial, timeutil.RealClock{}); err != nil {
		log.Fatalf("wearable-capture: %v", err)
	}
}

type captureConfig struct {
	portPath string
	portOpts capture.PortOptions
	outDir   string
	fileName string
	opts     capture.Options
}

func splitCommands(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func record(ctx context.Context, cfg captureConfig, open capture.Opener, clock timeutil.Clock) error {
	fileName := cfg.fileName
	if fileName == "" {
		fileName = fmt.Sprintf("capture_%s.txt", clock.Now().UTC().Format("20060102T150405Z"))
	}
	path, err := security.OutputPath(cfg.outDir, fileName)
	if err != nil {
		return err
	}

	p, err := open(cfg.portPath, cfg.portOpts)
	if err != nil {
		return err
	}
	defer p.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	log.Printf("capturing %s to %s", cfg.portPath, path)
	start := clock.Now()
	cfg.opts.Clock = clock
	stats, err := capture.Capture(ctx, p, f, cfg.opts)
	log.Printf("captured %d lines in %s (%d unknown)", stats.Lines, clock.Since(start).Round(time.Second), stats.Unknown)
	for _, c := range []telemetry.Channel{telemetry.ACC, telemetry.ECG, telemetry.PPG125, telemetry.PPG512, telemetry.HR} {
		if n := stats.PerChannel[c]; n > 0 {
			log.Printf("  %s: %d", c, n)
		}
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return f.Sync()
}
