package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// DefaultMaxChartPoints caps the points per series in HTML charts.
const DefaultMaxChartPoints = 5000

var axisNames = []string{"x", "y", "z"}

// stride returns the sampling step that keeps n points under max.
func stride(n, max int) int {
	if max <= 0 || n <= max {
		return 1
	}
	return (n + max - 1) / max
}

// ChannelChart builds a line chart of one channel, one series per axis,
// decimated to at most maxPoints points.
func ChannelChart(title string, cr *pipeline.ChannelResult, maxPoints int) *charts.Line {
	step := stride(len(cr.Samples), maxPoints)
	var t0 float64
	if len(cr.Samples) > 0 {
		t0 = cr.Samples[0].TimestampMs
	}

	axes := cr.Channel.Axes()
	xs := make([]string, 0, len(cr.Samples)/step+1)
	series := make([][]opts.LineData, axes)
	for i := 0; i < len(cr.Samples); i += step {
		s := cr.Samples[i]
		xs = append(xs, fmt.Sprintf("%.3f", (s.TimestampMs-t0)/telemetry.MsPerSecond))
		for a := 0; a < axes; a++ {
			series[a] = append(series[a], opts.LineData{Value: s.Values[a]})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", title, cr.Channel),
			Subtitle: fmt.Sprintf("fs=%g Hz samples=%d filter=%s", cr.SampleRateHz, len(cr.Samples), cr.Filter),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xs)
	if axes == 1 {
		line.AddSeries(cr.Channel.String(), series[0])
	} else {
		for a := 0; a < axes; a++ {
			line.AddSeries(axisNames[a], series[a])
		}
	}
	return line
}

// RenderHTML writes a page with one chart per successfully reconstructed
// channel.
func RenderHTML(w io.Writer, title string, res *pipeline.Result, maxPoints int) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	n := 0
	for _, c := range telemetry.Channels {
		cr := res.Channel(c)
		if cr == nil || cr.Err != nil || len(cr.Samples) == 0 {
			continue
		}
		page.AddCharts(ChannelChart(title, cr, maxPoints))
		n++
	}
	if n == 0 {
		return fmt.Errorf("no channel has samples to chart")
	}
	return page.Render(w)
}

// WriteHTMLFile renders the result to <base>.html in dir.
func WriteHTMLFile(dir, base string, res *pipeline.Result, maxPoints int) (string, error) {
	return writeFile(dir, base+".html", func(w io.Writer) error {
		return RenderHTML(w, base, res, maxPoints)
	})
}
