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

package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"survdiag/utils"
)

// maxCondition is the condition number above which a design matrix is
// treated as rank deficient.
const maxCondition = 1e12

// Fit holds the result of an ordinary least-squares fit of a response column
// against a set of predictor columns, with an intercept term. Coefficient
// slices are indexed with the intercept first, then the predictors in order.
type Fit struct {
	Response   string
	Predictors []string
	Rows       []int // dataset row indices used (listwise complete)
	N          int   // number of observations used
	P          int   // number of estimated coefficients, intercept included
	ResidualDF int   // N - P

	Coef   []float64
	StdErr []float64
	TStat  []float64
	PValue []float64

	Fitted    []float64 // aligned with Rows
	Residuals []float64 // aligned with Rows
	Hat       []float64 // diagonal of the projection matrix, aligned with Rows

	SSE, SSR, SST float64
	MSE           float64
	R2, AdjR2     float64

	x    *mat.Dense
	y    []float64
	xtxi *mat.Dense
}

// olsSolve computes the least-squares coefficients and (X'X)^-1 for a design
// matrix with intercept column. It reports ErrNotIdentifiable for singular or
// badly conditioned designs instead of returning garbage coefficients.
func olsSolve(x *mat.Dense, y []float64) ([]float64, *mat.Dense, error) {
	n, p := x.Dims()
	if n <= p {
		return nil, nil, fmt.Errorf("%w: %d observations for %d coefficients", ErrNotIdentifiable, n, p)
	}
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	xtxi := mat.NewDense(p, p, nil)
	if err := xtxi.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > maxCondition {
			return nil, nil, fmt.Errorf("%w: %v", ErrNotIdentifiable, err)
		}
	}
	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)
	var bv mat.VecDense
	bv.MulVec(xtxi, &xty)
	beta := make([]float64, p)
	for j := 0; j < p; j++ {
		beta[j] = bv.AtVec(j)
	}
	for _, b := range beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, nil, fmt.Errorf("%w: non-finite coefficient", ErrNotIdentifiable)
		}
	}
	return beta, xtxi, nil
}

// hatDiagonal computes x_i' (X'X)^-1 x_i for row i of the design matrix.
func hatDiagonal(x *mat.Dense, xtxi *mat.Dense, i int) float64 {
	_, p := x.Dims()
	xi := x.RawRowView(i)
	h := 0.0
	for a := 0; a < p; a++ {
		for b := 0; b < p; b++ {
			h += xi[a] * xtxi.At(a, b) * xi[b]
		}
	}
	return h
}

// FitOLS fits response ~ intercept + predictors by ordinary least squares.
// Observations with a missing value in any used column are excluded listwise.
func FitOLS(ds *Dataset, response string, predictors []string) (*Fit, error) {
	used := append([]string{response}, predictors...)
	rows, err := ds.completeRows(used)
	if err != nil {
		return nil, err
	}
	n := len(rows)
	p := len(predictors) + 1
	if n <= p {
		return nil, fmt.Errorf("%w: %d complete observations for %d coefficients", ErrNotIdentifiable, n, p)
	}
	yc, _ := ds.Column(response)
	pcols := make([][]float64, len(predictors))
	for j, name := range predictors {
		pcols[j], _ = ds.Column(name)
	}
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i, r := range rows {
		x.Set(i, 0, 1.0)
		for j := range predictors {
			x.Set(i, j+1, pcols[j][r])
		}
		y[i] = yc[r]
	}
	beta, xtxi, err := olsSolve(x, y)
	if err != nil {
		return nil, fmt.Errorf("fit %s ~ %v: %w", response, predictors, err)
	}
	f := &Fit{
		Response:   response,
		Predictors: predictors,
		Rows:       rows,
		N:          n,
		P:          p,
		ResidualDF: n - p,
		Coef:       beta,
		Fitted:     make([]float64, n),
		Residuals:  make([]float64, n),
		Hat:        make([]float64, n),
		x:          x,
		y:          y,
		xtxi:       xtxi,
	}
	ybar := stat.Mean(y, nil)
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < p; j++ {
			fit += x.At(i, j) * beta[j]
		}
		f.Fitted[i] = fit
		f.Residuals[i] = y[i] - fit
		f.Hat[i] = hatDiagonal(x, xtxi, i)
		f.SSE += f.Residuals[i] * f.Residuals[i]
		f.SST += (y[i] - ybar) * (y[i] - ybar)
	}
	f.SSR = f.SST - f.SSE
	f.MSE = f.SSE / float64(f.ResidualDF)
	f.R2 = 1.0 - f.SSE/f.SST
	f.AdjR2 = 1.0 - (f.SSE/float64(n-p))/(f.SST/float64(n-1))
	f.StdErr = make([]float64, p)
	f.TStat = make([]float64, p)
	f.PValue = make([]float64, p)
	for j := 0; j < p; j++ {
		f.StdErr[j] = math.Sqrt(f.MSE * xtxi.At(j, j))
		f.TStat[j] = beta[j] / f.StdErr[j]
		f.PValue[j] = utils.StudentTPValue(f.TStat[j], float64(f.ResidualDF))
	}
	return f, nil
}

// CoefNames returns the coefficient labels, intercept first.
func (f *Fit) CoefNames() []string {
	names := make([]string, 0, f.P)
	names = append(names, "Intercept")
	names = append(names, f.Predictors...)
	return names
}

// FTestResult holds a nested-model F test.
type FTestResult struct {
	F      float64
	PValue float64
	DFNum  int
	DFDen  int
}

// PartialFTest tests the hypothesis that the coefficients present in the full
// model but not in the reduced model are zero. The reduced model must be
// nested in the full model and fit on the same observations.
func PartialFTest(reduced, full *Fit) (*FTestResult, error) {
	if reduced.Response != full.Response {
		return nil, fmt.Errorf("partial F: different responses %s and %s", reduced.Response, full.Response)
	}
	for _, rp := range reduced.Predictors {
		found := false
		for _, fp := range full.Predictors {
			if rp == fp {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("partial F: %s is not nested in the full model", rp)
		}
	}
	if len(reduced.Predictors) >= len(full.Predictors) {
		return nil, fmt.Errorf("partial F: reduced model is not smaller than the full model")
	}
	if reduced.N != full.N {
		return nil, fmt.Errorf("partial F: models fit on different observations (%d vs %d)", reduced.N, full.N)
	}
	dfNum := reduced.ResidualDF - full.ResidualDF
	dfDen := full.ResidualDF
	fstat := ((reduced.SSE - full.SSE) / float64(dfNum)) / (full.SSE / float64(dfDen))
	return &FTestResult{
		F:      fstat,
		PValue: utils.FSurvival(fstat, float64(dfNum), float64(dfDen)),
		DFNum:  dfNum,
		DFDen:  dfDen,
	}, nil
}

// VIF computes the variance-inflation factor for each predictor by regressing
// it on all other predictors: VIF_j = 1/(1 - R2_j).
func VIF(ds *Dataset, predictors []string) (map[string]float64, error) {
	if len(predictors) < 2 {
		return nil, fmt.Errorf("vif: need at least two predictors")
	}
	vifs := map[string]float64{}
	for j, name := range predictors {
		others := make([]string, 0, len(predictors)-1)
		others = append(others, predictors[:j]...)
		others = append(others, predictors[j+1:]...)
		f, err := FitOLS(ds, name, others)
		if err != nil {
			return nil, err
		}
		vifs[name] = 1.0 / (1.0 - f.R2)
	}
	return vifs, nil
}

// CorrelationMatrix computes the pairwise Pearson correlation matrix of the
// given columns, excluding missing values pairwise.
func CorrelationMatrix(ds *Dataset, names []string) (*mat.SymDense, error) {
	k := len(names)
	m := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		m.SetSym(a, a, 1.0)
		for b := a + 1; b < k; b++ {
			rows, err := ds.completeRows([]string{names[a], names[b]})
			if err != nil {
				return nil, err
			}
			ca, _ := ds.Column(names[a])
			cb, _ := ds.Column(names[b])
			xa := make([]float64, len(rows))
			xb := make([]float64, len(rows))
			for i, r := range rows {
				xa[i] = ca[r]
				xb[i] = cb[r]
			}
			m.SetSym(a, b, stat.Correlation(xa, xb, nil))
		}
	}
	return m, nil
}
