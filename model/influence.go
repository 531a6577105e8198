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
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/mat"
)

// Influence and outlier measures per observation, computed against the model
// fit on the full dataset with closed-form deletion formulas. A brute-force
// leave-one-out sweep is provided for verification, and a hold-out check
// refits without one named observation to illustrate its influence.

// Thresholds holds the rule-of-thumb flagging thresholds. They are
// conventional, not uniquely determined, so they are parameters rather than
// constants.
type Thresholds struct {
	Leverage    float64 // 2p/n
	Studentized float64 // 2
	DFFITS      float64 // 2*sqrt(p/n)
	CooksD      float64 // 4/n, or 1 under the absolute rule
	DFBeta      float64 // 2/sqrt(n)
	VIF         float64 // 10, or 5 under the strict rule
}

// DefaultThresholds returns the conventional thresholds for a fit with n
// observations and p estimated coefficients. cooksRule selects between the
// sample-size rule "4/n" and the absolute rule "1".
func DefaultThresholds(n, p int, cooksRule string, vif float64) Thresholds {
	cooks := 4.0 / float64(n)
	if cooksRule == "1" {
		cooks = 1.0
	}
	return Thresholds{
		Leverage:    2.0 * float64(p) / float64(n),
		Studentized: 2.0,
		DFFITS:      2.0 * math.Sqrt(float64(p)/float64(n)),
		CooksD:      cooks,
		DFBeta:      2.0 / math.Sqrt(float64(n)),
		VIF:         vif,
	}
}

// InfluenceRecord holds the influence diagnostics for one observation,
// derived from exactly one fitted model.
type InfluenceRecord struct {
	ID       int
	Row      int // dataset row index
	Fitted   float64
	Residual float64

	Leverage    float64
	Studentized float64 // externally studentized (R-student)
	DFFITS      float64
	CooksD      float64
	DFBetas     []float64 // standardized, one per coefficient

	HighLeverage bool
	Outlier      bool
	HighDFFITS   bool
	HighCooksD   bool
	HighDFBeta   []bool
	Flagged      bool
}

// Influence computes leverage, externally studentized residuals, DFFITS,
// Cook's distance and standardized DFBETA for every observation of the fit,
// and flags each measure against its threshold.
func Influence(ds *Dataset, f *Fit, th Thresholds) []InfluenceRecord {
	n, p := f.N, f.P
	out := make([]InfluenceRecord, n)
	for i := 0; i < n; i++ {
		h := f.Hat[i]
		e := f.Residuals[i]
		// residual variance with observation i excluded
		s2i := (float64(n-p)*f.MSE - e*e/(1.0-h)) / float64(n-p-1)
		ti := e / math.Sqrt(s2i*(1.0-h))
		dffits := ti * math.Sqrt(h/(1.0-h))
		ri := e / math.Sqrt(f.MSE*(1.0-h)) // internally studentized
		cook := ri * ri * h / (float64(p) * (1.0 - h))
		rec := InfluenceRecord{
			ID:          ds.IDs[f.Rows[i]],
			Row:         f.Rows[i],
			Fitted:      f.Fitted[i],
			Residual:    e,
			Leverage:    h,
			Studentized: ti,
			DFFITS:      dffits,
			CooksD:      cook,
			DFBetas:     make([]float64, p),
			HighDFBeta:  make([]bool, p),
		}
		xi := f.x.RawRowView(i)
		for j := 0; j < p; j++ {
			c := 0.0
			for b := 0; b < p; b++ {
				c += f.xtxi.At(j, b) * xi[b]
			}
			dfbeta := c * e / (1.0 - h)
			rec.DFBetas[j] = dfbeta / math.Sqrt(s2i*f.xtxi.At(j, j))
			rec.HighDFBeta[j] = math.Abs(rec.DFBetas[j]) > th.DFBeta
		}
		rec.HighLeverage = h > th.Leverage
		rec.Outlier = math.Abs(ti) > th.Studentized
		rec.HighDFFITS = math.Abs(dffits) > th.DFFITS
		rec.HighCooksD = cook > th.CooksD
		rec.Flagged = rec.HighLeverage || rec.Outlier || rec.HighDFFITS || rec.HighCooksD
		out[i] = rec
	}
	return out
}

// looPredict refits the model without observation i and predicts that
// observation from the refit coefficients.
func looPredict(f *Fit, i int) (float64, error) {
	n, p := f.N, f.P
	x := mat.NewDense(n-1, p, nil)
	y := make([]float64, 0, n-1)
	for r := 0; r < n; r++ {
		if r == i {
			continue
		}
		row := len(y)
		for j := 0; j < p; j++ {
			x.Set(row, j, f.x.At(r, j))
		}
		y = append(y, f.y[r])
	}
	beta, _, err := olsSolve(x, y)
	if err != nil {
		return 0, err
	}
	pred := 0.0
	for j := 0; j < p; j++ {
		pred += f.x.At(i, j) * beta[j]
	}
	return pred, nil
}

// LeaveOneOutResiduals literally refits the model n times, each time with one
// observation removed, and returns the prediction residual y_i - yhat_(i) for
// each observation. This exists to verify the closed-form influence measures.
func LeaveOneOutResiduals(f *Fit) ([]float64, error) {
	n := f.N
	res := make([]float64, n)
	errs := make([]error, n)
	parallel.Range(0, n, 0, func(low, high int) {
		for i := low; i < high; i++ {
			pred, err := looPredict(f, i)
			if err != nil {
				errs[i] = err
				continue
			}
			res[i] = f.y[i] - pred
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// HoldOutResult contrasts an observation's in-sample residual with its
// prediction residual when its response is withheld from the fit.
type HoldOutResult struct {
	ID          int
	InSample    float64 // residual with the observation included
	Predicted   float64 // prediction from the refit without it
	OutOfSample float64 // prediction residual
}

// HoldOut refits the model with the named observation's response removed,
// predicts that observation from its predictor values using the refit
// coefficients, and reports the prediction residual next to the in-sample
// residual.
func HoldOut(ds *Dataset, f *Fit, id int) (*HoldOutResult, error) {
	row, ok := ds.RowIndex(id)
	if !ok {
		return nil, fmt.Errorf("hold-out: no observation with ID %d", id)
	}
	pos := -1
	for i, r := range f.Rows {
		if r == row {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("hold-out: observation %d was not used in the fit", id)
	}
	pred, err := looPredict(f, pos)
	if err != nil {
		return nil, err
	}
	return &HoldOutResult{
		ID:          id,
		InSample:    f.Residuals[pos],
		Predicted:   pred,
		OutOfSample: f.y[pos] - pred,
	}, nil
}
