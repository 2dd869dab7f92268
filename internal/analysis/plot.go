// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Plot generation related functionality.

package analysis

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/evolution-gaming/vidinfo/internal/metric"
)

var (
	defaultPlotWidth  = vg.Centimeter * 24
	defaultPlotHeight = vg.Centimeter * 7
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// A custom color palette: color1 as base color and color2 as a darker variant.
var ColorPalette = []color.RGBA{
	// red1
	{R: 230, G: 57, B: 70, A: 255},
	// red2
	{R: 143, G: 35, B: 43, A: 255},
	// green1
	{R: 84, G: 184, B: 50, A: 255},
	// green2
	{R: 50, G: 110, B: 30, A: 255},
	// blue1
	{R: 63, G: 55, B: 201, A: 255},
	// blue2
	{R: 51, G: 45, B: 163, A: 255},
	// purple1
	{R: 86, G: 11, B: 173, A: 255},
	// purple2
	{R: 62, G: 8, B: 125, A: 255},
	// cyan1
	{R: 31, G: 180, B: 206, A: 255},
	// cyan2
	{R: 11, G: 123, B: 143, A: 255},
	// orange1
	{R: 255, G: 174, B: 0, A: 255},
	// orange2
	{R: 173, G: 118, B: 0, A: 255},
}

// CreateBitratePlot creates a bar chart of video bitrate per source.
func CreateBitratePlot(records []metric.Record) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Source"
	p.Y.Label.Text = "Mbps"

	var values plotter.Values
	var names []string
	for _, r := range records {
		if !r.OK {
			continue
		}
		values = append(values, float64(r.Bitrate)/1e6)
		names = append(names, filepath.Base(r.Source))
	}
	if len(values) == 0 {
		return p, fmt.Errorf("CreateBitratePlot(): %w", ErrNoData)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return p, fmt.Errorf("CreateBitratePlot() creating bar chart: %w", err)
	}
	bars.Color = ColorPalette[4]
	bars.LineStyle.Width = 0

	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)

	return p, nil
}

// CreateHistogramPlot creates histogram plot for given values.
func CreateHistogramPlot(values []float64, name string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = name
	p.Y.Label.Text = "N"

	if len(values) == 0 {
		return p, fmt.Errorf("CreateHistogramPlot(): %w", ErrNoData)
	}

	// A number of bins to use for histogram, batches are small.
	bins := len(values)
	if bins > 20 {
		bins = 20
	}

	pHist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return p, fmt.Errorf("CreateHistogramPlot() creating new histogram: %w", err)
	}
	pHist.Color = color.Transparent
	pHist.FillColor = ColorPalette[7]

	p.Add(pHist)
	p.Add(plotter.NewGrid())

	return p, nil
}

// CreateCDFPlot creates Cumulative Distribution Function plot for given values.
func CreateCDFPlot(values []float64, name string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = name
	p.Y.Label.Text = "Probability"
	p.Y.Min = 0

	if len(values) == 0 {
		return p, fmt.Errorf("CreateCDFPlot(): %w", ErrNoData)
	}

	// We are going to mutate values slice, so make a copy to avoid mangling
	// underlying array and creating unexpected sideffect in caller's scope.
	lValues := make([]float64, len(values))
	copy(lValues, values)
	sort.Float64s(lValues)

	cdfValues := make(plotter.XYs, len(lValues))
	for i, v := range lValues {
		cdfValues[i].X = v
		cdfValues[i].Y = stat.CDF(v, stat.Empirical, lValues, nil)
	}

	cdfLine, err := plotter.NewLine(cdfValues)
	if err != nil {
		return p, fmt.Errorf("CreateCDFPlot() creating new Line: %w", err)
	}
	cdfLine.Color = ColorPalette[2]

	p.Add(cdfLine, plotter.NewGrid())
	p.Add(createQuantileLines(p, lValues, 0.05, 0.5, 0.95)...)

	return p, nil
}

// PlotBatch will create batch overview multi plot and save it to PNG file.
//
// Resulting canvas holds bitrate per source, duration histogram and bitrate
// CDF. Only successful records are plotted.
func PlotBatch(records []metric.Record, title, outFile string) (err error) {
	var bitrates, durations []float64
	for _, r := range records {
		if !r.OK {
			continue
		}
		bitrates = append(bitrates, float64(r.Bitrate)/1e6)
		durations = append(durations, float64(r.DurationMs)/1000)
	}
	if len(bitrates) == 0 {
		return fmt.Errorf("PlotBatch(): %w", ErrNoData)
	}

	// A 2D slice to hold subplots, as required by plot.Align.
	const rows, cols = 3, 1
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}

	if plots[0][0], err = CreateBitratePlot(records); err != nil {
		return err
	}
	if plots[1][0], err = CreateHistogramPlot(durations, "Duration (seconds)"); err != nil {
		return err
	}
	if plots[2][0], err = CreateCDFPlot(bitrates, "Mbps"); err != nil {
		return err
	}

	plots[0][0].Title.Text = title + "\n\nBitrate per source"
	plots[1][0].Title.Text = "Duration Histogram"
	plots[2][0].Title.Text = "Bitrate Cumulative Distribution Function (CDF)"

	img := vgimg.New(defaultPlotWidth, defaultPlotHeight*rows)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadY: vg.Points(10),
	}

	canvases := plot.Align(plots, t, dc)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if plots[j][i] != nil {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	}

	w, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("PlotBatch() creating file: %w", err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("PlotBatch() closing file: %w", cerr)
		}
	}()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("PlotBatch() writing PNG: %w", err)
	}

	return nil
}

// verticalLine is helper to create a vertical line.
func verticalLine(x, ymin, ymax float64) *plotter.Line {
	line, err := plotter.NewLine(plotter.XYs{
		{X: x, Y: ymin},
		{X: x, Y: ymax},
	})
	// Unlikely to have error here - so just panic in that case.
	if err != nil {
		log.Panic(err)
	}
	return line
}

// createQuantileLines is helper to create vertical Quantile lines.
func createQuantileLines(p *plot.Plot, values []float64, quantiles ...float64) []plot.Plotter {
	var plotters []plot.Plotter
	colorCount := len(ColorPalette)
	for i, q := range quantiles {
		qVal := stat.Quantile(q, stat.Empirical, values, nil)
		qLine := verticalLine(qVal, p.Y.Min, p.Y.Max)
		qLine.LineStyle.Width = vg.Points(1)
		qLine.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		// Wrap-around index to stay within ColorPalette.
		qLine.Color = ColorPalette[i*5%colorCount]

		labels, _ := plotter.NewLabels(plotter.XYLabels{
			XYs: plotter.XYs{
				{X: qVal, Y: q},
			},
			Labels: []string{
				fmt.Sprintf("q(%.2f)=%.3f", q, qVal),
			},
		})
		labels.Offset.X = 5
		labels.Offset.Y = -5

		plotters = append(plotters, qLine, labels)
	}
	// Also add mean/average line.
	meanVal := stat.Mean(values, nil)
	meanLine := verticalLine(meanVal, p.Y.Min, p.Y.Max)
	meanLine.Color = ColorPalette[len(ColorPalette)-1]
	qValMean := stat.CDF(meanVal, stat.Empirical, values, nil)
	meanLabel, _ := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			{X: meanVal, Y: qValMean},
		},
		Labels: []string{
			fmt.Sprintf("mean=%.3f", meanVal),
		},
	})
	meanLabel.Offset.X = 5
	meanLabel.Offset.Y = -5
	plotters = append(plotters, meanLine, meanLabel)

	return plotters
}
