package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/wearable.report/internal/config"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/reconstruct"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// ChannelResult is the reconstructed series of one channel. When Err is set
// the channel produced no samples; other channels are unaffected.
type ChannelResult struct {
	Channel      telemetry.Channel
	SampleRateHz float64
	Filter       string
	Records      int
	Samples      []reconstruct.TimestampedSample
	Diagnostics  *monitoring.Diagnostics
	Err          error
}

// channelJob carries everything one channel needs; nothing is shared
// between jobs.
type channelJob struct {
	channel      telemetry.Channel
	lines        []string
	profile      config.ChannelProfile
	applyFilters bool
	sequence     *reconstruct.SequenceState
}

func (j channelJob) run(ctx context.Context) *ChannelResult {
	diag := monitoring.NewDiagnostics(j.channel.String())
	res := &ChannelResult{
		Channel:      j.channel,
		SampleRateHz: j.profile.SampleRateHz,
		Filter:       "passthrough",
		Diagnostics:  diag,
	}

	acc := telemetry.NewAccumulator(j.channel)
	for _, line := range j.lines {
		if err := acc.Add(line); err != nil {
			diag.Add(monitoring.DecodeFailure, 1, err.Error())
		}
	}
	res.Records = acc.Records
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	var seq []int64
	if step := j.channel.SequenceStep(); step > 0 {
		seq = j.sequence.Apply(acc.Samples, step, diag)
	}
	samples := reconstruct.Interpolate(acc.Samples, seq, diag)
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	if j.applyFilters {
		filtered, err := filterSamples(j.profile, samples, j.channel.Axes())
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", j.channel, err)
			monitoring.Logf("[%s] filtering disabled for this run: %v", j.channel, err)
			return res
		}
		samples = filtered
		res.Filter = j.profile.Chain.String()
	}
	res.Samples = samples
	return res
}

// filterSamples runs the chain over each value column. Timestamps and
// sequence numbers are copied untouched.
func filterSamples(p config.ChannelProfile, samples []reconstruct.TimestampedSample, axes int) ([]reconstruct.TimestampedSample, error) {
	cols := make([][]float64, axes)
	for a := range cols {
		cols[a] = make([]float64, len(samples))
		for i, s := range samples {
			cols[a][i] = s.Values[a]
		}
	}

	filtered, err := p.Chain.ApplyColumns(cols)
	if err != nil {
		return nil, err
	}

	out := make([]reconstruct.TimestampedSample, len(samples))
	for i, s := range samples {
		values := make([]float64, axes)
		for a := range values {
			values[a] = filtered[a][i]
		}
		s.Values = values
		out[i] = s
	}
	return out, nil
}
