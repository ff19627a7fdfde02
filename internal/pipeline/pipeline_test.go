package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/wearable.report/internal/config"
	"github.com/banshee-data/wearable.report/internal/dsp"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
	"github.com/banshee-data/wearable.report/internal/testutil"
	"github.com/banshee-data/wearable.report/internal/units"
)

var ecgPayload = []int64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000, 1100, 1200}

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) {})
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func newRunner(t *testing.T, mutate func(*config.PipelineConfig)) *Runner {
	t.Helper()
	cfg := config.DefaultPipelineConfig()
	if mutate != nil {
		mutate(cfg)
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r
}

func TestReadLines(t *testing.T) {
	in := "  5,1,2\n\n\t\n9,3,4  \r\n22,5\n"
	lines, err := ReadLines(strings.NewReader(in))
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"5,1,2", "9,3,4", "22,5"}, lines); diff != "" {
		t.Errorf("ReadLines mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLinesTooLong(t *testing.T) {
	_, err := ReadLines(strings.NewReader(strings.Repeat("1", maxLineBytes+1)))
	assert.Error(t, err)
}

func TestGroup(t *testing.T) {
	lines := []string{"5,a", "9,b", "99,c", "5,d", "x,e", "22,f", "0,g"}
	g := Group(lines)
	assert.Equal(t, 2, g.Skipped)
	assert.Equal(t, []string{"5,a", "5,d"}, g.Lines[telemetry.ECG])
	assert.Equal(t, []string{"9,b"}, g.Lines[telemetry.PPG125])
	assert.Equal(t, []string{"22,f"}, g.Lines[telemetry.HR])
	assert.Equal(t, []string{"0,g"}, g.Lines[telemetry.ACC])
	assert.NotContains(t, g.Lines, telemetry.Channel(99))
}

func TestRunECG(t *testing.T) {
	quiet(t)
	lines := []string{
		testutil.Line(5, 1, ecgPayload, 777, 1600000000),
		testutil.Line(5, 2, ecgPayload, 778, 1600000001),
	}
	res, err := newRunner(t, nil).Run(context.Background(), lines)
	require.NoError(t, err)

	ecg := res.Channel(telemetry.ECG)
	require.NotNil(t, ecg)
	require.NoError(t, ecg.Err)
	assert.Equal(t, 2, ecg.Records)
	assert.Equal(t, "passthrough", ecg.Filter)
	require.Len(t, ecg.Samples, 11)

	for i, s := range ecg.Samples {
		assert.InDelta(t, 1600000000000+float64(i)*1000.0/11, s.TimestampMs, 1e-6)
		assert.True(t, s.HasSeq)
		assert.Equal(t, int64(i+1), s.LogicalSeq)
		assert.InDelta(t, units.ECGMillivolts(ecgPayload[i]), s.Values[0], 1e-12)
	}
	assert.Equal(t, 11, ecg.Diagnostics.Count(monitoring.BoundaryLossWarning))
	assert.Nil(t, res.Channel(telemetry.ACC))
}

func TestRunSequenceGap(t *testing.T) {
	quiet(t)
	var lines []string
	for i, seq := range []int64{10, 11, 13, 14} {
		lines = append(lines, testutil.Line(9, seq, []int64{1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6}, 0, 100+int64(i)))
	}
	res, err := newRunner(t, nil).Run(context.Background(), lines)
	require.NoError(t, err)

	ppg := res.Channel(telemetry.PPG125)
	require.NotNil(t, ppg)
	require.Len(t, ppg.Samples, 18)
	assert.Equal(t, int64(1), ppg.Samples[0].LogicalSeq)
	assert.Equal(t, int64(12), ppg.Samples[11].LogicalSeq)
	assert.Equal(t, int64(19), ppg.Samples[12].LogicalSeq)
	assert.Equal(t, 1, ppg.Diagnostics.Count(monitoring.DroppedRecords))
}

func TestRunSkipsBadRecords(t *testing.T) {
	quiet(t)
	lines := []string{
		testutil.Line(5, 1, ecgPayload, 0, 100),
		"5,2,300",
		"5,2,a,b,c,d,e,f,g,h,i,j,k,l,0,100",
		testutil.Line(5, 2, ecgPayload, 0, 101),
		testutil.Line(42, 1, nil, 0, 100),
		"not a record",
	}
	res, err := newRunner(t, nil).Run(context.Background(), lines)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Skipped)
	ecg := res.Channel(telemetry.ECG)
	require.NotNil(t, ecg)
	assert.Equal(t, 2, ecg.Diagnostics.Count(monitoring.DecodeFailure))
	assert.Equal(t, 2, ecg.Records)
	assert.Len(t, ecg.Samples, 11)
}

func TestRunHR(t *testing.T) {
	quiet(t)
	lines := []string{
		testutil.HRLine(1, 70, 3, 1, 100),
		testutil.HRLine(2, 0, 0, 2, 101),
		testutil.HRLine(3, 55, 255, 3, 102),
		"22,4,bad",
	}
	res, err := newRunner(t, nil).Run(context.Background(), lines)
	require.NoError(t, err)

	require.Len(t, res.HR, 3)
	assert.Equal(t, int64(70), res.HR[1].Beats)
	assert.False(t, res.HR[1].IsDrop)
	assert.True(t, res.HR[2].IsDrop)
	assert.Equal(t, 1, res.HRDiagnostics.Count(monitoring.DecodeFailure))
}

func accLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		v := int64(i % 7)
		lines[i] = testutil.Line(0, int64(i), []int64{v, 2 * v, 3 * v, 0, v + 1, v + 2, v + 3, 0, v, v, v}, 0, 100+int64(i/10))
	}
	return lines
}

func TestRunFiltersKeepTimestamps(t *testing.T) {
	quiet(t)
	lines := accLines(40)

	raw, err := newRunner(t, nil).Run(context.Background(), lines)
	require.NoError(t, err)
	filtered, err := newRunner(t, func(c *config.PipelineConfig) {
		on := true
		c.ApplyFilters = &on
	}).Run(context.Background(), lines)
	require.NoError(t, err)

	r, f := raw.Channel(telemetry.ACC), filtered.Channel(telemetry.ACC)
	require.NoError(t, f.Err)
	require.Len(t, f.Samples, 90)
	require.Len(t, r.Samples, 90)
	assert.NotEqual(t, "passthrough", f.Filter)
	assert.Equal(t, "passthrough", r.Filter)

	changed := false
	for i := range f.Samples {
		assert.Equal(t, r.Samples[i].TimestampMs, f.Samples[i].TimestampMs)
		assert.False(t, f.Samples[i].HasSeq)
		require.Len(t, f.Samples[i].Values, 3)
		if f.Samples[i].Values[0] != r.Samples[i].Values[0] {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestRunInvalidProfileIsolatesChannel(t *testing.T) {
	quiet(t)
	lines := append(accLines(40),
		testutil.Line(5, 1, ecgPayload, 0, 100),
		testutil.Line(5, 2, ecgPayload, 0, 101),
	)
	res, err := newRunner(t, func(c *config.PipelineConfig) {
		on := true
		name := config.ProfileACC20Hz
		c.ApplyFilters = &on
		c.Profile = &name
	}).Run(context.Background(), lines)
	require.NoError(t, err)

	acc := res.Channel(telemetry.ACC)
	var fce *dsp.FilterConfigError
	require.True(t, errors.As(acc.Err, &fce))
	assert.Empty(t, acc.Samples)

	ecg := res.Channel(telemetry.ECG)
	assert.NoError(t, ecg.Err)
	assert.Len(t, ecg.Samples, 11)
}

func TestRunCancelled(t *testing.T) {
	quiet(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, nil).Run(ctx, accLines(20))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	zero := 0
	cfg.Workers = &zero
	_, err := NewRunner(cfg)
	assert.Error(t, err)
}

func TestRunEmpty(t *testing.T) {
	res, err := newRunner(t, nil).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Channels)
	assert.Empty(t, res.HR)
	assert.Equal(t, config.ProfileCanonical, res.Profile)
}
