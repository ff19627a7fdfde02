// Command hr-export writes the HR summaries of a raw recording to
// <base>_hr.csv with the drop policy applied.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/wearable.report/internal/export"
	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/security"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/version"
)

var (
	outDir      = flag.String("out", ".", "Output directory")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <raw_data_file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("hr-export"))
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	path, records, err := exportHR(flag.Arg(0), *outDir)
	if err != nil {
		log.Fatalf("hr-export: %v", err)
	}
	log.Printf("wrote %d records (%d kept) to %s", len(records), hr.Kept(records), path)
}

// exportHR reads input, annotates its HR lines and writes the CSV. Lines of
// other channels are ignored; malformed HR lines are logged and skipped.
func exportHR(input, dir string) (string, []hr.Annotated, error) {
	f, err := os.Open(input)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	lines, err := pipeline.ReadLines(f)
	if err != nil {
		return "", nil, err
	}

	var records []telemetry.HRRecord
	for _, line := range pipeline.Group(lines).Lines[telemetry.HR] {
		rec, err := telemetry.ParseHRRecord(line)
		if err != nil {
			log.Printf("skipping HR line: %v", err)
			continue
		}
		records = append(records, rec)
	}
	annotated := hr.Annotate(records)

	path, err := export.WriteHRFile(dir, security.BaseName(input), annotated)
	if err != nil {
		return "", nil, err
	}
	return path, annotated, nil
}
