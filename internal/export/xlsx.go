package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// maxSheetRows is the Excel row limit, header included.
const maxSheetRows = 1048576

const summarySheet = "summary"

var summaryHeader = []string{"channel", "sample_rate_hz", "records", "samples", "filter", "diagnostics", "error"}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func headerRow(cols []string, style int) []interface{} {
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = excelize.Cell{StyleID: style, Value: c}
	}
	return row
}

// streamSheet writes header and rows to a new sheet. Rows past the Excel
// limit are not written; the number written is returned.
func streamSheet(f *excelize.File, name string, header []string, style, n int, row func(i int) []interface{}) (int, error) {
	if _, err := f.NewSheet(name); err != nil {
		return 0, fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return 0, err
	}
	if err := sw.SetRow("A1", headerRow(header, style)); err != nil {
		return 0, err
	}
	if n > maxSheetRows-1 {
		n = maxSheetRows - 1
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := sw.SetRow(cell, row(i)); err != nil {
			return 0, fmt.Errorf("sheet %s row %d: %w", name, i+2, err)
		}
	}
	return n, sw.Flush()
}

// WriteXLSX writes the result as a workbook: a summary sheet, one sheet per
// reconstructed channel and an hr sheet when HR records are present.
func WriteXLSX(w io.Writer, res *pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	style, err := headerStyle(f)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeaderCells); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "G1", style); err != nil {
		return err
	}

	row := 2
	for _, c := range telemetry.Channels {
		cr := res.Channel(c)
		if cr == nil {
			continue
		}
		written := 0
		if cr.Err == nil {
			written, err = streamSheet(f, c.String(), ChannelHeader(c), style, len(cr.Samples), func(i int) []interface{} {
				s := cr.Samples[i]
				out := []interface{}{s.TimestampMs}
				if s.HasSeq {
					out = append(out, s.LogicalSeq)
				}
				for _, v := range s.Values {
					out = append(out, v)
				}
				return out
			})
			if err != nil {
				return err
			}
		}
		errText := ""
		if cr.Err != nil {
			errText = cr.Err.Error()
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{c.String(), cr.SampleRateHz, cr.Records, written, cr.Filter, cr.Diagnostics.String(), errText}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	if len(res.HR) > 0 {
		_, err := streamSheet(f, telemetry.HR.String(), HRHeader, style, len(res.HR), func(i int) []interface{} {
			r := res.HR[i]
			drop := 0
			if r.IsDrop {
				drop = 1
			}
			return []interface{}{r.Record.DeviceTS, r.Beats, r.Record.ReportedBeats, r.Record.Confidence, drop}
		})
		if err != nil {
			return err
		}
	}

	if err := f.SetPanes(summarySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

var summaryHeaderCells = func() []interface{} {
	out := make([]interface{}, len(summaryHeader))
	for i, h := range summaryHeader {
		out[i] = h
	}
	return out
}()

// WriteXLSXFile writes <base>.xlsx into dir.
func WriteXLSXFile(dir, base string, res *pipeline.Result) (string, error) {
	return writeFile(dir, base+".xlsx", func(w io.Writer) error {
		return WriteXLSX(w, res)
	})
}
