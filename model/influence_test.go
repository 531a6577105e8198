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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// outlierDataset builds a line with bounded perturbation and one observation
// (ID 11) pushed far off the line.
func outlierDataset(t *testing.T) *Dataset {
	t.Helper()
	n := 30
	ids := make([]int, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		ids[i] = i + 1
		xs[i] = float64(i + 1)
		ys[i] = 3.0 + 2.0*xs[i] + math.Sin(2.1*float64(i+1))*1.5
	}
	ys[10] += 25.0
	ds, err := NewDataset(ids, []string{"x", "y"}, [][]float64{xs, ys})
	require.NoError(t, err)
	return ds
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds(54, 4, "4/n", 10.0)
	require.InDelta(t, 8.0/54.0, th.Leverage, 1e-12)
	require.InDelta(t, 2.0, th.Studentized, 1e-12)
	require.InDelta(t, 2.0*math.Sqrt(4.0/54.0), th.DFFITS, 1e-12)
	require.InDelta(t, 4.0/54.0, th.CooksD, 1e-12)
	require.InDelta(t, 2.0/math.Sqrt(54.0), th.DFBeta, 1e-12)
	require.InDelta(t, 10.0, th.VIF, 1e-12)

	th = DefaultThresholds(54, 4, "1", 5.0)
	require.InDelta(t, 1.0, th.CooksD, 1e-12)
	require.InDelta(t, 5.0, th.VIF, 1e-12)
}

func TestInfluenceOutlier(t *testing.T) {
	ds := outlierDataset(t)
	f, err := FitOLS(ds, "y", []string{"x"})
	require.NoError(t, err)
	th := DefaultThresholds(f.N, f.P, "4/n", 10.0)
	recs := Influence(ds, f, th)
	require.Len(t, recs, 30)
	rec := recs[10]
	require.Equal(t, 11, rec.ID)
	require.InDelta(t, 0.042343, rec.Leverage, 1e-5)
	require.InDelta(t, 21.227536, rec.Studentized, 1e-4)
	require.InDelta(t, 4.463620, rec.DFFITS, 1e-4)
	require.InDelta(t, 0.584024, rec.CooksD, 1e-4)
	require.True(t, rec.Outlier)
	require.True(t, rec.HighDFFITS)
	require.True(t, rec.HighCooksD)
	require.True(t, rec.Flagged)
	// the shifted observation is the only studentized outlier
	for i, r := range recs {
		if i != 10 {
			require.False(t, r.Outlier, "observation %d", r.ID)
		}
		require.Len(t, r.DFBetas, f.P)
		require.Len(t, r.HighDFBeta, f.P)
	}
}

func TestInfluenceMatchesDeletionFormulas(t *testing.T) {
	ds := testDataset(t, 30)
	f, err := FitOLS(ds, "y", []string{"x1", "x2", "x3"})
	require.NoError(t, err)
	th := DefaultThresholds(f.N, f.P, "4/n", 10.0)
	recs := Influence(ds, f, th)
	for i, rec := range recs {
		h := f.Hat[i]
		e := f.Residuals[i]
		s2i := (float64(f.N-f.P)*f.MSE - e*e/(1.0-h)) / float64(f.N-f.P-1)
		require.InDelta(t, e/math.Sqrt(s2i*(1.0-h)), rec.Studentized, 1e-10)
		require.InDelta(t, rec.Studentized*math.Sqrt(h/(1.0-h)), rec.DFFITS, 1e-10)
		ri := e / math.Sqrt(f.MSE*(1.0-h))
		require.InDelta(t, ri*ri*h/(float64(f.P)*(1.0-h)), rec.CooksD, 1e-10)
	}
}

func TestLeaveOneOutResiduals(t *testing.T) {
	// brute-force refits agree with the closed-form deletion residual
	// e_(i) = e_i / (1 - h_i)
	ds := testDataset(t, 30)
	f, err := FitOLS(ds, "y", []string{"x1", "x2", "x3"})
	require.NoError(t, err)
	loo, err := LeaveOneOutResiduals(f)
	require.NoError(t, err)
	require.Len(t, loo, f.N)
	for i := range loo {
		require.InDelta(t, f.Residuals[i]/(1.0-f.Hat[i]), loo[i], 1e-7)
	}
}

func TestHoldOut(t *testing.T) {
	ds := outlierDataset(t)
	f, err := FitOLS(ds, "y", []string{"x"})
	require.NoError(t, err)
	res, err := HoldOut(ds, f, 11)
	require.NoError(t, err)
	require.Equal(t, 11, res.ID)
	require.InDelta(t, f.Residuals[10], res.InSample, 1e-12)
	// withholding the observation moves the fit towards the others, so the
	// prediction residual exceeds the in-sample residual
	require.Greater(t, math.Abs(res.OutOfSample), math.Abs(res.InSample))
	require.InDelta(t, f.Residuals[10]/(1.0-f.Hat[10]), res.OutOfSample, 1e-7)

	_, err = HoldOut(ds, f, 999)
	require.Error(t, err)
}
