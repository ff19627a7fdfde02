package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/reconstruct"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/testutil"
)

func ecgResult(n int) *pipeline.ChannelResult {
	x := testutil.Sine(n, 8, 512, 1)
	cr := &pipeline.ChannelResult{Channel: telemetry.ECG, SampleRateHz: 512, Filter: "passthrough"}
	for i, v := range x {
		cr.Samples = append(cr.Samples, reconstruct.TimestampedSample{
			TimestampMs: 1000 + float64(i)*1000/512,
			LogicalSeq:  int64(i + 1),
			HasSeq:      true,
			Values:      []float64{v},
		})
	}
	return cr
}

func accResult() *pipeline.ChannelResult {
	return &pipeline.ChannelResult{
		Channel:      telemetry.ACC,
		SampleRateHz: 100,
		Filter:       "passthrough",
		Samples: []reconstruct.TimestampedSample{
			{TimestampMs: 1000, Values: []float64{1, 2, 3}},
			{TimestampMs: 1500, Values: []float64{0, -1, 2}},
		},
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "rec_acc.csv", FileName("rec", telemetry.ACC))
	assert.Equal(t, "rec_ppg125.csv", FileName("rec", telemetry.PPG125))
	assert.Equal(t, "rec_hr.csv", FileName("rec", telemetry.HR))
}

func TestWriteChannelCSV(t *testing.T) {
	var buf bytes.Buffer
	cr := &pipeline.ChannelResult{
		Channel: telemetry.PPG125,
		Samples: []reconstruct.TimestampedSample{
			{TimestampMs: 1000, LogicalSeq: 1, HasSeq: true, Values: []float64{0.5}},
			{TimestampMs: 1333.3333333, LogicalSeq: 2, HasSeq: true, Values: []float64{-1.25}},
		},
	}
	require.NoError(t, WriteChannelCSV(&buf, cr))
	want := []string{"#timestamp,seq,value", "1000.000,1,0.5", "1333.333,2,-1.25"}
	if diff := cmp.Diff(want, lines(buf.String())); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteChannelCSVAcc(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChannelCSV(&buf, accResult()))
	want := []string{"#timestamp,x,y,z", "1000.000,1,2,3", "1500.000,0,-1,2"}
	if diff := cmp.Diff(want, lines(buf.String())); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteHRCSV(t *testing.T) {
	records := hr.Annotate([]telemetry.HRRecord{
		{ReportedBeats: 70, Confidence: 3, DeviceTS: 100},
		{ReportedBeats: 0, Confidence: 1, DeviceTS: 101},
		{ReportedBeats: 65, Confidence: 255, DeviceTS: 102},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteHRCSV(&buf, records))
	want := []string{
		"#timestamp,reported_hr,original_hr,confidence,is_drop",
		"100,70,70,3,0",
		"101,70,0,1,0",
		"102,65,65,255,1",
	}
	if diff := cmp.Diff(want, lines(buf.String())); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVFiles(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) {})
	defer monitoring.SetLogger(prev)

	dir := t.TempDir()
	res := &pipeline.Result{
		Channels: map[telemetry.Channel]*pipeline.ChannelResult{
			telemetry.ECG:    ecgResult(10),
			telemetry.ACC:    accResult(),
			telemetry.PPG512: {Channel: telemetry.PPG512, Err: errors.New("bad filter")},
		},
		HR: hr.Annotate([]telemetry.HRRecord{{ReportedBeats: 60, Confidence: 3, DeviceTS: 5}}),
	}
	written, err := WriteCSVFiles(dir, "rec", res)
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "rec_acc.csv"),
		filepath.Join(dir, "rec_ecg.csv"),
		filepath.Join(dir, "rec_hr.csv"),
	}
	assert.Equal(t, want, written)
	assert.NoFileExists(t, filepath.Join(dir, "rec_ppg512.csv"))

	data, err := os.ReadFile(filepath.Join(dir, "rec_ecg.csv"))
	require.NoError(t, err)
	assert.Len(t, lines(string(data)), 11)
}

func TestPlotSeries(t *testing.T) {
	ts, y := PlotSeries(accResult())
	assert.Equal(t, []float64{0, 0.5}, ts)
	assert.Equal(t, []float64{14, 5}, y)

	ts, y = PlotSeries(&pipeline.ChannelResult{Channel: telemetry.ECG})
	assert.Nil(t, ts)
	assert.Nil(t, y)
}

func TestPlotChannel(t *testing.T) {
	dir := t.TempDir()
	written, err := PlotChannel(dir, "rec", ecgResult(1024))
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(dir, "rec_ecg_time.png"), written[0])
	assert.Equal(t, filepath.Join(dir, "rec_ecg_freq.png"), written[1])
	for _, p := range written {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestPlotChannelErrors(t *testing.T) {
	_, err := PlotChannel(t.TempDir(), "rec", &pipeline.ChannelResult{Channel: telemetry.ECG})
	assert.Error(t, err)

	bad := errors.New("boom")
	_, err = PlotChannel(t.TempDir(), "rec", &pipeline.ChannelResult{Channel: telemetry.ECG, Err: bad})
	assert.ErrorIs(t, err, bad)
}

func TestStride(t *testing.T) {
	assert.Equal(t, 1, stride(10, 0))
	assert.Equal(t, 1, stride(10, 10))
	assert.Equal(t, 2, stride(11, 10))
	assert.Equal(t, 4, stride(10000, 2500))
}

func TestChannelChartDecimates(t *testing.T) {
	chart := ChannelChart("rec", ecgResult(1000), 100)
	require.Len(t, chart.MultiSeries, 1)
	assert.Len(t, chart.MultiSeries[0].Data, 100)

	acc := ChannelChart("rec", accResult(), 0)
	assert.Len(t, acc.MultiSeries, 3)
}

func TestRenderHTML(t *testing.T) {
	res := &pipeline.Result{Channels: map[telemetry.Channel]*pipeline.ChannelResult{
		telemetry.ECG: ecgResult(50),
		telemetry.ACC: accResult(),
	}}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "rec", res, DefaultMaxChartPoints))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "rec ecg")
	assert.Contains(t, html, "rec acc")

	err := RenderHTML(&buf, "rec", &pipeline.Result{}, DefaultMaxChartPoints)
	assert.Error(t, err)
}

func TestWriteHTMLFile(t *testing.T) {
	dir := t.TempDir()
	res := &pipeline.Result{Channels: map[telemetry.Channel]*pipeline.ChannelResult{telemetry.ECG: ecgResult(20)}}
	path, err := WriteHTMLFile(dir, "rec", res, DefaultMaxChartPoints)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec.html"), path)
	assert.FileExists(t, path)
}
