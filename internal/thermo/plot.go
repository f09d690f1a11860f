package thermo

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// writeCpPlot draws the model Cp against the fitted polynomial.
func writeCpPlot(path, title string, r *rrho, p Polynomial) error {
	const n = 100
	model := make(plotter.XYs, n)
	fit := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		t := p.TMin + (p.TMax-p.TMin)*float64(i)/float64(n-1)
		model[i].X, model[i].Y = t, r.Cp(t)*gasConstant
		fit[i].X, fit[i].Y = t, p.Cp(t)*gasConstant
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "T (K)"
	pl.Y.Label.Text = "Cp (cal/mol/K)"
	pl.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(pl, "RRHO", model, "NASA fit", fit); err != nil {
		return eris.Wrap(err, "thermo: plot lines")
	}
	if err := pl.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return eris.Wrapf(err, "thermo: save plot %s", path)
	}
	return nil
}
