package internal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrInvalidPlotFormat = errors.New("invalid plot format")

// VerifyPlotFormats normalises the plot formats; "none" is dropped and "all"
// expands to every plot.
func VerifyPlotFormats(formats []string) ([]string, error) {
	validFormats := []string{"hist", "histogram", "box", "boxplot", "bar", "errorbar"}
	var verified []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch {
		case f == "" || f == "none":
			continue
		case f == "all":
			return []string{"histogram", "bar", "errorbar", "boxplot"}, nil
		case !slices.Contains(validFormats, f):
			return nil, fmt.Errorf("%w: %s", ErrInvalidPlotFormat, f)
		}
		verified = append(verified, f)
	}
	return verified, nil
}

func commandNames(results []BenchmarkResult) []string {
	return MapFunc[[]BenchmarkResult, []string](func(r BenchmarkResult) string { return r.CommandWithUnusedParameters }, results)
}

func histogram(results []BenchmarkResult, timeUnit string, filename string) error {
	p := plot.New()
	p.Title.Text = "Histogram"
	p.X.Label.Text = timeUnit

	for i, result := range results {
		if len(result.Times) == 0 {
			continue
		}
		v := make(plotter.Values, len(result.Times))
		copy(v, result.Times)

		h, err := plotter.NewHist(v, 16)
		if err != nil {
			return err
		}
		h.FillColor = plotColor(i)
		p.Legend.Add(result.CommandWithUnusedParameters, h)
		p.Add(h)
	}
	p.Legend.Top = true

	return p.Save(4*vg.Inch, 4*vg.Inch, filename)
}

func meanTimes(results []BenchmarkResult) plotter.Values {
	return MapFunc[[]BenchmarkResult, plotter.Values](func(sr BenchmarkResult) float64 { return sr.Mean }, results)
}

func plotWidth(results []BenchmarkResult) vg.Length {
	return vg.Length(max(3, len(results))) * vg.Inch
}

func barPlot(results []BenchmarkResult, timeUnit string, filename string) error {
	p := plot.New()
	p.Title.Text = "Bar Chart"
	p.Y.Label.Text = fmt.Sprintf("Mean times (in %s)", timeUnit)

	bars, err := plotter.NewBarChart(meanTimes(results), vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)

	p.Add(bars)
	p.NominalX(commandNames(results)...)

	return p.Save(plotWidth(results), 3*vg.Inch, filename)
}

// errorBars pairs the mean of every command with its standard deviation.
type errorBars struct {
	plotter.XYs
	plotter.YErrors
}

func errorBarPlot(results []BenchmarkResult, timeUnit string, filename string) error {
	p := plot.New()
	p.Title.Text = "Mean times with standard deviation"
	p.Y.Label.Text = fmt.Sprintf("Mean times (in %s)", timeUnit)

	bars, err := plotter.NewBarChart(meanTimes(results), vg.Points(20))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(1)
	p.Add(bars)

	data := errorBars{
		XYs:     make(plotter.XYs, len(results)),
		YErrors: make(plotter.YErrors, len(results)),
	}
	for i, r := range results {
		data.XYs[i].X = float64(i)
		data.XYs[i].Y = r.Mean
		if r.Stddev != nil {
			data.YErrors[i].Low = *r.Stddev
			data.YErrors[i].High = *r.Stddev
		}
	}
	yerrs, err := plotter.NewYErrorBars(data)
	if err != nil {
		return err
	}
	p.Add(yerrs)
	p.NominalX(commandNames(results)...)

	return p.Save(plotWidth(results), 3*vg.Inch, filename)
}

func boxPlot(results []BenchmarkResult, timeUnit string, filename string) error {
	p := plot.New()
	p.Title.Text = "Box Plot"
	p.Y.Label.Text = fmt.Sprintf("Times (in %s)", timeUnit)

	for i, result := range results {
		if len(result.Times) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(result.Times))
		if err != nil {
			return err
		}
		box.FillColor = plotColor(i)
		p.Add(box)
	}
	p.NominalX(commandNames(results)...)

	return p.Save(plotWidth(results), 3*vg.Inch, filename)
}

// Plot renders the requested plots as PNG files named after prefix, with
// times in timeUnit. It returns the files written.
func Plot(plotFormats []string, results []BenchmarkResult, timeUnit time.Duration, prefix string) ([]string, error) {
	converted := ModifyTimeUnit(results, timeUnit)
	unitName := unitShortName(timeUnit)

	var written []string
	for _, plotFormat := range plotFormats {
		var (
			filename string
			err      error
		)
		switch plotFormat {
		case "hist", "histogram":
			filename = prefix + "-histogram.png"
			err = histogram(converted, unitName, filename)
		case "bar":
			filename = prefix + "-barchart.png"
			err = barPlot(converted, unitName, filename)
		case "errorbar":
			filename = prefix + "-errorbar.png"
			err = errorBarPlot(converted, unitName, filename)
		case "box", "boxplot":
			filename = prefix + "-boxplot.png"
			err = boxPlot(converted, unitName, filename)
		default:
			panic("Plot: unknown plot format: " + plotFormat)
		}
		if err != nil {
			return written, fmt.Errorf("unable to draw %s: %w", filename, err)
		}
		written = append(written, filename)
	}
	return written, nil
}
