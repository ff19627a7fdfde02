package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/wearable.report/internal/dsp"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/security"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

var lineColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// PlotSeries returns the values plotted for a channel: the single value for
// scalar channels, x²+y²+z² for ACC. Times are seconds from the first sample.
func PlotSeries(cr *pipeline.ChannelResult) (t, y []float64) {
	if len(cr.Samples) == 0 {
		return nil, nil
	}
	t0 := cr.Samples[0].TimestampMs
	t = make([]float64, len(cr.Samples))
	y = make([]float64, len(cr.Samples))
	for i, s := range cr.Samples {
		t[i] = (s.TimestampMs - t0) / telemetry.MsPerSecond
		if cr.Channel.Axes() == 3 {
			for _, v := range s.Values {
				y[i] += v * v
			}
		} else {
			y[i] = s.Values[0]
		}
	}
	return t, y
}

func linePlot(title, xLabel, yLabel string, xs, ys []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())
	return p, nil
}

// PlotChannel writes <base>_<channel>_time.png and <base>_<channel>_freq.png
// into dir: the time series and its single-sided amplitude spectrum.
func PlotChannel(dir, base string, cr *pipeline.ChannelResult) ([]string, error) {
	if cr.Err != nil {
		return nil, cr.Err
	}
	if len(cr.Samples) < 2 {
		return nil, fmt.Errorf("%s: not enough samples to plot (%d)", cr.Channel, len(cr.Samples))
	}

	yLabel := "mV"
	if cr.Channel == telemetry.ACC {
		yLabel = "x²+y²+z² (raw)"
	}
	t, y := PlotSeries(cr)
	timePlot, err := linePlot(
		fmt.Sprintf("%s %s (%s)", base, cr.Channel, cr.Filter),
		"Time (s)", yLabel, t, y)
	if err != nil {
		return nil, err
	}

	freqs, amps := dsp.Spectrum(y, cr.SampleRateHz)
	freqPlot, err := linePlot(
		fmt.Sprintf("%s %s spectrum at %g Hz", base, cr.Channel, cr.SampleRateHz),
		"Frequency (Hz)", "Amplitude", freqs, amps)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, out := range []struct {
		suffix string
		p      *plot.Plot
	}{{"time", timePlot}, {"freq", freqPlot}} {
		path, err := security.OutputPath(dir, fmt.Sprintf("%s_%s_%s.png", base, cr.Channel, out.suffix))
		if err != nil {
			return written, err
		}
		if err := out.p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return written, fmt.Errorf("failed to save plot: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}
