// Package export writes reconstructed recordings as CSV files, XLSX
// workbooks, PNG plots and HTML charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/security"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// HRHeader is the header line of the HR export.
var HRHeader = []string{"#timestamp", "reported_hr", "original_hr", "confidence", "is_drop"}

// FileName returns the export file name of channel c for a recording base
// name, for example rec_ppg125.csv.
func FileName(base string, c telemetry.Channel) string {
	return fmt.Sprintf("%s_%s.csv", base, c)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ChannelHeader returns the CSV header of a channel. Sequence-tracked
// channels carry a seq column.
func ChannelHeader(c telemetry.Channel) []string {
	header := []string{"#timestamp"}
	if c.SequenceStep() > 0 {
		header = append(header, "seq")
	}
	if c.Axes() == 3 {
		return append(header, "x", "y", "z")
	}
	return append(header, "value")
}

// WriteChannelCSV writes one row per sample.
func WriteChannelCSV(w io.Writer, cr *pipeline.ChannelResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ChannelHeader(cr.Channel)); err != nil {
		return err
	}
	for _, s := range cr.Samples {
		row := make([]string, 0, 2+len(s.Values))
		row = append(row, strconv.FormatFloat(s.TimestampMs, 'f', 3, 64))
		if s.HasSeq {
			row = append(row, strconv.FormatInt(s.LogicalSeq, 10))
		}
		for _, v := range s.Values {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHRCSV writes annotated HR records. Dropped records are kept with
// is_drop set so the export lines up with the input.
func WriteHRCSV(w io.Writer, records []hr.Annotated) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HRHeader); err != nil {
		return err
	}
	for _, r := range records {
		drop := "0"
		if r.IsDrop {
			drop = "1"
		}
		row := []string{
			strconv.FormatInt(r.Record.DeviceTS, 10),
			strconv.FormatInt(r.Beats, 10),
			strconv.FormatInt(r.Record.ReportedBeats, 10),
			strconv.FormatInt(r.Record.Confidence, 10),
			drop,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	path, err := security.OutputPath(dir, name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// WriteCSVFiles writes every channel in the result and, when present, the
// HR records into dir. Channels that failed are logged and skipped. It
// returns the paths written.
func WriteCSVFiles(dir, base string, res *pipeline.Result) ([]string, error) {
	var written []string
	for _, c := range telemetry.Channels {
		cr := res.Channel(c)
		if cr == nil {
			continue
		}
		if cr.Err != nil {
			monitoring.Logf("[%s] not exported: %v", c, cr.Err)
			continue
		}
		path, err := writeFile(dir, FileName(base, c), func(w io.Writer) error {
			return WriteChannelCSV(w, cr)
		})
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(res.HR) > 0 {
		path, err := WriteHRFile(dir, base, res.HR)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteHRFile writes <base>_hr.csv into dir.
func WriteHRFile(dir, base string, records []hr.Annotated) (string, error) {
	return writeFile(dir, FileName(base, telemetry.HR), func(w io.Writer) error {
		return WriteHRCSV(w, records)
	})
}
