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
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"survdiag/stats"
)

// TestResult holds a test statistic and its p-value. Every decision made from
// it states the significance threshold used.
type TestResult struct {
	Stat   float64
	PValue float64
}

// ResidualChecks holds the residual diagnostics of a fitted model: a
// normality test on the residual vector and the Breusch-Pagan test for
// non-constant variance.
type ResidualChecks struct {
	Normality     TestResult
	NormalOK      bool // PValue >= alpha: no evidence against normality
	BreuschPagan  TestResult
	ConstantVarOK bool // PValue >= alpha: no evidence against constant variance
	Alpha         float64
}

// BreuschPagan regresses the squared residuals of a fit on its predictors and
// tests whether that auxiliary regression explains a significant share of
// variance. The statistic is LM = n * R2_aux with one degree of freedom per
// predictor.
func BreuschPagan(f *Fit) TestResult {
	n := f.N
	e2 := make([]float64, n)
	for i, e := range f.Residuals {
		e2[i] = e * e
	}
	beta, _, err := olsSolve(f.x, e2)
	if err != nil {
		// the design was already validated by the original fit
		return TestResult{Stat: 0, PValue: 1}
	}
	mean := stat.Mean(e2, nil)
	sse, sst := 0.0, 0.0
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < f.P; j++ {
			fit += f.x.At(i, j) * beta[j]
		}
		sse += (e2[i] - fit) * (e2[i] - fit)
		sst += (e2[i] - mean) * (e2[i] - mean)
	}
	r2 := 1.0 - sse/sst
	lm := float64(n) * r2
	chi := distuv.ChiSquared{K: float64(f.P - 1)}
	return TestResult{Stat: lm, PValue: chi.Survival(lm)}
}

// DiagnoseResiduals runs the normality and constant-variance checks on the
// residuals of a fitted model at the given significance level.
func DiagnoseResiduals(f *Fit, alpha float64) (*ResidualChecks, error) {
	a2, p, err := stats.AndersonDarling(f.Residuals)
	if err != nil {
		return nil, err
	}
	bp := BreuschPagan(f)
	return &ResidualChecks{
		Normality:     TestResult{Stat: a2, PValue: p},
		NormalOK:      p >= alpha,
		BreuschPagan:  bp,
		ConstantVarOK: bp.PValue >= alpha,
		Alpha:         alpha,
	}, nil
}

// Design returns a copy of the design matrix of the fit, intercept column
// included. Exposed for verification; the influence measures use closed-form
// updates instead of refitting.
func (f *Fit) Design() *mat.Dense {
	return mat.DenseCopyOf(f.x)
}

// ResponseVector returns a copy of the response values used in the fit.
func (f *Fit) ResponseVector() []float64 {
	out := make([]float64, len(f.y))
	copy(out, f.y)
	return out
}
