// SURVDIAG: Survival Regression Diagnostics Library
// Copyright (c) 2023 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/survdiag/blob/master/LICENSE.txt>.

package app

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"survdiag/model"
	"survdiag/stats"
)

// Plotting of diagnostics with gonum/plot: QQ plots, scatter plots, the
// residual-vs-fitted plot of the chosen model, and index plots of the
// influence measures with threshold reference lines.

var thresholdColor = color.RGBA{R: 200, A: 255}

func newScatter(xs, ys []float64) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return plotter.NewScatter(pts)
}

func horizontalLine(x0, x1, y float64) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = thresholdColor
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	return line, nil
}

func savePlot(p *plot.Plot, path, name, suffix string) error {
	return p.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(path, fmt.Sprintf("%s-%s", name, suffix)))
}

// qqPlot draws the sorted sample values against theoretical normal quantiles,
// with the line through the quartile points omitted in favor of a simple
// reference through mean and sd.
func qqPlot(values []float64, column, path, name string) error {
	theoretical, sample := stats.QQPoints(values)
	if len(sample) < 2 {
		return fmt.Errorf("qq plot %s: too few observations", column)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Normal QQ plot: %s", column)
	p.X.Label.Text = "Theoretical quantiles"
	p.Y.Label.Text = "Sample quantiles"
	sc, err := newScatter(theoretical, sample)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), sc)
	return savePlot(p, path, name, fmt.Sprintf("qq-%s.png", column))
}

func scatterPlot(xs, ys []float64, xlab, ylab, path, name string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", ylab, xlab)
	p.X.Label.Text = xlab
	p.Y.Label.Text = ylab
	sc, err := newScatter(xs, ys)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), sc)
	return savePlot(p, path, name, fmt.Sprintf("scatter-%s-%s.png", ylab, xlab))
}

func residualsVsFittedPlot(f *model.Fit, path, name string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Residuals vs fitted: %s", f.Response)
	p.X.Label.Text = "Fitted values"
	p.Y.Label.Text = "Residuals"
	sc, err := newScatter(f.Fitted, f.Residuals)
	if err != nil {
		return err
	}
	xmin, xmax := f.Fitted[0], f.Fitted[0]
	for _, v := range f.Fitted {
		xmin = math.Min(xmin, v)
		xmax = math.Max(xmax, v)
	}
	zero, err := horizontalLine(xmin, xmax, 0)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), sc, zero)
	return savePlot(p, path, name, "residuals-fitted.png")
}

// indexPlot draws one influence measure against the observation index with
// the rule-of-thumb threshold as a reference line; twoSided adds the mirrored
// line for signed measures.
func indexPlot(values []float64, ids []int, measure string, threshold float64, twoSided bool, path, name string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by observation", measure)
	p.X.Label.Text = "Observation"
	p.Y.Label.Text = measure
	xs := make([]float64, len(values))
	for i := range values {
		xs[i] = float64(ids[i])
	}
	sc, err := newScatter(xs, values)
	if err != nil {
		return err
	}
	p.Add(plotter.NewGrid(), sc)
	upper, err := horizontalLine(xs[0], xs[len(xs)-1], threshold)
	if err != nil {
		return err
	}
	p.Add(upper)
	if twoSided {
		lower, err := horizontalLine(xs[0], xs[len(xs)-1], -threshold)
		if err != nil {
			return err
		}
		p.Add(lower)
	}
	return savePlot(p, path, name, fmt.Sprintf("influence-%s.png", measure))
}

// WritePlots renders all diagnostic plots for the report to PNG files in the
// output path.
func WritePlots(rep *Report, ds *model.Dataset, path string) error {
	response, _ := ds.Column(model.ResponseName)
	for _, column := range append(append([]string{}, model.PredictorNames...), model.ResponseName) {
		values, _ := ds.Column(column)
		if err := qqPlot(values, column, path, rep.Name); err != nil {
			return err
		}
		if column != model.ResponseName {
			if err := scatterPlot(values, response, column, model.ResponseName, path, rep.Name); err != nil {
				return err
			}
		}
	}
	if rep.ChosenModel != nil {
		if err := residualsVsFittedPlot(rep.ChosenModel, path, rep.Name); err != nil {
			return err
		}
	}
	if len(rep.Influence) > 0 {
		n := len(rep.Influence)
		ids := make([]int, n)
		leverage := make([]float64, n)
		student := make([]float64, n)
		dffits := make([]float64, n)
		cooks := make([]float64, n)
		for i, r := range rep.Influence {
			ids[i] = r.ID
			leverage[i] = r.Leverage
			student[i] = r.Studentized
			dffits[i] = r.DFFITS
			cooks[i] = r.CooksD
		}
		th := rep.Thresholds
		if err := indexPlot(leverage, ids, "leverage", th.Leverage, false, path, rep.Name); err != nil {
			return err
		}
		if err := indexPlot(student, ids, "rstudent", th.Studentized, true, path, rep.Name); err != nil {
			return err
		}
		if err := indexPlot(dffits, ids, "dffits", th.DFFITS, true, path, rep.Name); err != nil {
			return err
		}
		if err := indexPlot(cooks, ids, "cooksd", th.CooksD, false, path, rep.Name); err != nil {
			return err
		}
	}
	return nil
}
