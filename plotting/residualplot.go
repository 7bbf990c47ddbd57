// Package plotting renders solver telemetry into image files.
package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ResidualPlot renders residual histories on a semi-logarithmic scale,
// one line per solve.
type ResidualPlot struct {
	p      *plot.Plot
	series int
}

// NewResidualPlot creates an empty residual plot.
func NewResidualPlot() *ResidualPlot {
	p := plot.New()
	p.Title.Text = "Residual history"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Residual norm"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	return &ResidualPlot{p: p}
}

// AddSeries adds one residual history as a line. Non-positive norms
// cannot be placed on the logarithmic axis and are skipped.
func (r *ResidualPlot) AddSeries(name string, norms []float64) error {
	pts := make(plotter.XYs, 0, len(norms))
	for i, n := range norms {
		if n <= 0 {
			continue
		}

		pts = append(pts, plotter.XY{X: float64(i), Y: n})
	}

	if len(pts) == 0 {
		return fmt.Errorf("plotting: series %q has no positive residuals",
			name)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}

	line.Color = plotutil.Color(r.series)
	r.series++

	r.p.Add(line)
	r.p.Legend.Add(name, line)

	return nil
}

// Save writes the plot to a file. The image format follows the file
// extension, e.g. .png, .svg or .pdf.
func (r *ResidualPlot) Save(path string) error {
	if r.series == 0 {
		return fmt.Errorf("plotting: no series added")
	}

	return r.p.Save(6*vg.Inch, 4*vg.Inch, path)
}
