// Command wearable-parse reconstructs a raw wearable recording into per
// channel time series and exports them as CSV, XLSX, plots, HTML or SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/wearable.report/internal/config"
	"github.com/banshee-data/wearable.report/internal/db"
	"github.com/banshee-data/wearable.report/internal/export"
	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/security"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Pipeline config JSON (defaults apply when empty)")
	profile     = flag.String("profile", "", "Filter profile, overrides the config (canonical, bandpass-only, acc-20hz)")
	applyFilter = flag.Bool("filter", false, "Apply the profile's zero-phase filters")
	exportCSV   = flag.Bool("export-csv", false, "Write <base>_<channel>.csv files")
	plotType    = flag.Int("plot-type", -1, "Plot one channel by type tag: 0 ACC, 5 ECG, 9 PPG 125 Hz, 12 PPG 512 Hz")
	exportXLSX  = flag.Bool("export-xlsx", false, "Write a workbook <base>.xlsx with one sheet per channel")
	htmlOut     = flag.Bool("html", false, "Write an HTML chart page <base>.html")
	dbPath      = flag.String("db", "", "Store the run in this SQLite database")
	outDir      = flag.String("out", ".", "Output directory")
	workers     = flag.Int("workers", 0, "Channels processed concurrently (0 keeps the config value)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	input     string
	outDir    string
	cfg       *config.PipelineConfig
	exportCSV bool
	xlsx      bool
	plot      *telemetry.Channel
	html      bool
	dbPath    string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <raw_data_file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("wearable-parse"))
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	opts, err := buildOptions(flag.Arg(0))
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts); err != nil {
		log.Fatalf("wearable-parse: %v", err)
	}
}

func buildOptions(input string) (options, error) {
	cfg := config.DefaultPipelineConfig()
	if *configPath != "" {
		loaded, err := config.LoadPipelineConfig(*configPath)
		if err != nil {
			return options{}, err
		}
		cfg = loaded
	}
	if *profile != "" {
		cfg.Profile = profile
	}
	if *applyFilter {
		cfg.ApplyFilters = applyFilter
	}
	if *workers > 0 {
		cfg.Workers = workers
	}

	opts := options{
		input:     input,
		outDir:    *outDir,
		cfg:       cfg,
		exportCSV: *exportCSV,
		xlsx:      *exportXLSX,
		html:      *htmlOut,
		dbPath:    *dbPath,
	}
	if *plotType >= 0 {
		c := telemetry.Channel(*plotType)
		if c.SequenceStep() == 0 && c != telemetry.ACC {
			return options{}, fmt.Errorf("plot-type %d is not a sample channel", *plotType)
		}
		opts.plot = &c
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	runner, err := pipeline.NewRunner(opts.cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return err
	}
	lines, err := pipeline.ReadLines(f)
	f.Close()
	if err != nil {
		return err
	}
	log.Printf("read %d lines from %s", len(lines), opts.input)

	res, err := runner.Run(ctx, lines)
	if err != nil {
		return err
	}
	report(res)

	base := security.BaseName(opts.input)
	if opts.exportCSV {
		written, err := export.WriteCSVFiles(opts.outDir, base, res)
		if err != nil {
			return err
		}
		for _, p := range written {
			log.Printf("wrote %s", p)
		}
	}
	if opts.plot != nil {
		// A channel that cannot be plotted does not stop the other outputs.
		if err := plotChannel(opts.outDir, base, res, *opts.plot); err != nil {
			log.Printf("plot skipped: %v", err)
		}
	}
	if opts.xlsx {
		p, err := export.WriteXLSXFile(opts.outDir, base, res)
		if err != nil {
			return err
		}
		log.Printf("wrote %s", p)
	}
	if opts.html {
		p, err := export.WriteHTMLFile(opts.outDir, base, res, export.DefaultMaxChartPoints)
		if err != nil {
			return err
		}
		log.Printf("wrote %s", p)
	}
	if opts.dbPath != "" {
		store, err := db.NewDB(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveResult(ctx, opts.input, res)
		if err != nil {
			return err
		}
		log.Printf("stored run %s in %s", id, opts.dbPath)
	}
	return nil
}

func plotChannel(dir, base string, res *pipeline.Result, c telemetry.Channel) error {
	cr := res.Channel(c)
	if cr == nil {
		return fmt.Errorf("no %s records to plot", c)
	}
	written, err := export.PlotChannel(dir, base, cr)
	if err != nil {
		return err
	}
	for _, p := range written {
		log.Printf("wrote %s", p)
	}
	return nil
}

func report(res *pipeline.Result) {
	log.Printf("profile %s, %d lines with unknown tags", res.Profile, res.Skipped)
	for _, c := range telemetry.Channels {
		cr := res.Channel(c)
		if cr == nil {
			continue
		}
		if cr.Err != nil {
			log.Printf("%s: %d records, failed: %v", c, cr.Records, cr.Err)
			continue
		}
		log.Printf("%s: %d records, %d samples, filter %s; %s", c, cr.Records, len(cr.Samples), cr.Filter, cr.Diagnostics)
	}
	if len(res.HR) > 0 {
		log.Printf("hr: %d records, %d kept; %s", len(res.HR), hr.Kept(res.HR), res.HRDiagnostics)
	}
}
