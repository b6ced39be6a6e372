// Package report renders lesson diagnostics: an HTML dwell-time chart for a
// recorded session and a PNG of an alignment sweep.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lesson.view/internal/align"
	"github.com/banshee-data/lesson.view/internal/progress"
)

// AssetsHost serves the echarts javascript for rendered pages.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var ErrNoSamples = errors.New("no sweep samples")

// DwellChart writes an HTML page with one bar per scene showing the seconds
// spent there.
func DwellChart(w io.Writer, title string, dwell []progress.Dwell) error {
	x := make([]string, 0, len(dwell))
	seconds := make([]opts.BarData, 0, len(dwell))
	visits := make([]opts.BarData, 0, len(dwell))
	for _, d := range dwell {
		x = append(x, d.Scene)
		seconds = append(seconds, opts.BarData{Value: d.Total.Round(time.Millisecond).Seconds()})
		visits = append(visits, opts.BarData{Value: d.Visits})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("scenes=%d", len(dwell))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	bar.SetXAxis(x).
		AddSeries("dwell (s)", seconds,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("visits", visits)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render dwell chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// PlotSweep writes a PNG of anchor distance against model yaw, marking the
// chosen rotation.
func PlotSweep(w io.Writer, anchor string, res align.Result) error {
	if len(res.Samples) == 0 {
		return ErrNoSamples
	}
	pts := make(plotter.XYs, 0, len(res.Samples))
	for _, s := range res.Samples {
		pts = append(pts, plotter.XY{X: s.Degrees, Y: s.Distance})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Alignment sweep for %s", anchor)
	p.X.Label.Text = "yaw (deg)"
	p.Y.Label.Text = "distance to camera"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("sweep line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 104, B: 142, A: 255}
	p.Add(line)
	p.Legend.Add("distance", line)

	best, err := plotter.NewScatter(plotter.XYs{{X: degrees(res.BestRotation), Y: res.BestDistance}})
	if err != nil {
		return fmt.Errorf("best point: %w", err)
	}
	best.Color = color.RGBA{R: 184, G: 64, B: 158, A: 255}
	best.Radius = vg.Points(4)
	p.Add(best)
	p.Legend.Add("closest", best)

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode sweep plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
