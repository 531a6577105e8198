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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// expDataset builds a dataset whose response is exponential in the predictor,
// so the Box-Cox optimum is the log transform.
func expDataset(t *testing.T) *Dataset {
	t.Helper()
	n := 40
	ids := make([]int, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		ids[i] = i + 1
		xs[i] = float64(i + 1)
		ys[i] = math.Exp(2.0 + 0.04*xs[i] + math.Sin(1.7*float64(i))*0.08)
	}
	ds, err := NewDataset(ids, []string{"x", "y"}, [][]float64{xs, ys})
	require.NoError(t, err)
	return ds
}

func TestBoxCox(t *testing.T) {
	ds := expDataset(t)
	res, err := BoxCox(ds, "y", []string{"x"}, -2.0, 2.0, 0.1)
	require.NoError(t, err)
	require.Len(t, res.Lambdas, 41)
	require.InDelta(t, -2.0, res.Lambdas[0], 1e-12)
	require.InDelta(t, 2.0, res.Lambdas[40], 1e-9)
	require.InDelta(t, 0.0, res.Best, 1e-9)
	require.InDelta(t, 2.48497291, res.BestLogLik, 1e-5)
	// the reported optimum is the grid maximum
	for _, ll := range res.LogLik {
		require.LessOrEqual(t, ll, res.BestLogLik+1e-12)
	}
}

func TestBoxCoxLogLikelihoodAtZero(t *testing.T) {
	// at lambda 0 the profile log-likelihood comes from the log-response fit
	ds := expDataset(t)
	base, err := FitOLS(ds, "y", []string{"x"})
	require.NoError(t, err)
	ll, err := BoxCoxLogLikelihood(base, 0.0)
	require.NoError(t, err)
	name, err := DeriveResponse(ds, "y", "log", math.NaN())
	require.NoError(t, err)
	logFit, err := FitOLS(ds, name, []string{"x"})
	require.NoError(t, err)
	logSum := 0.0
	for _, v := range base.ResponseVector() {
		logSum += math.Log(v)
	}
	n := float64(base.N)
	want := -n/2.0*math.Log(logFit.SSE/n) - logSum
	require.InDelta(t, want, ll, 1e-8)
}

func TestBoxCoxRejectsNonPositiveResponse(t *testing.T) {
	ds, err := NewDataset([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		[]string{"x", "y"},
		[][]float64{
			{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			{3, 5, -1, 9, 11, 13, 15, 17, 19, 21},
		})
	require.NoError(t, err)
	_, err = BoxCox(ds, "y", []string{"x"}, -2.0, 2.0, 0.1)
	var de *DataError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 3, de.ID)
	require.Equal(t, "y", de.Column)
}

func TestInterpretLambda(t *testing.T) {
	require.Equal(t, "log", InterpretLambda(0.0))
	require.Equal(t, "log", InterpretLambda(-0.04))
	require.Equal(t, "sqrt", InterpretLambda(0.5))
	require.Equal(t, "reciprocal", InterpretLambda(-1.02))
	require.Equal(t, "identity", InterpretLambda(1.0))
	require.Equal(t, "power", InterpretLambda(0.7))
	require.Equal(t, "power", InterpretLambda(-0.3))
}

func TestDeriveResponse(t *testing.T) {
	ds := expDataset(t)
	y, _ := ds.Column("y")

	name, err := DeriveResponse(ds, "y", "log", math.NaN())
	require.NoError(t, err)
	require.Equal(t, "Logy", name)
	logy, ok := ds.Column(name)
	require.True(t, ok)
	require.InDelta(t, math.Log(y[0]), logy[0], 1e-12)

	name, err = DeriveResponse(ds, "y", "reciprocal", math.NaN())
	require.NoError(t, err)
	require.Equal(t, "Invy", name)
	invy, _ := ds.Column(name)
	require.InDelta(t, 1.0/y[3], invy[3], 1e-12)

	name, err = DeriveResponse(ds, "y", "power", 0.7)
	require.NoError(t, err)
	powy, _ := ds.Column(name)
	require.InDelta(t, (math.Pow(y[5], 0.7)-1.0)/0.7, powy[5], 1e-12)

	_, err = DeriveResponse(ds, "y", "cube", math.NaN())
	require.Error(t, err)
}

func TestDeriveResponseFailsFast(t *testing.T) {
	ds, err := NewDataset([]int{7, 8, 9},
		[]string{"x", "y"},
		[][]float64{{1, 2, 3}, {5, 0, 7}})
	require.NoError(t, err)
	for _, transform := range []string{"log", "sqrt", "reciprocal"} {
		_, err := DeriveResponse(ds, "y", transform, math.NaN())
		var de *DataError
		require.True(t, errors.As(err, &de), transform)
		require.Equal(t, 8, de.ID)
	}
}

func TestSearchTransforms(t *testing.T) {
	ds := expDataset(t)
	candidates, chosen, bc, err := SearchTransforms(ds, "y", []string{"x"}, 0.05, -2.0, 2.0, 0.1)
	require.NoError(t, err)
	require.InDelta(t, 0.0, bc.Best, 1e-9)
	// the optimum matches the log candidate, so no separate power candidate
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	require.Equal(t, []string{"identity", "log", "sqrt", "reciprocal", "quadratic"}, names)
	require.GreaterOrEqual(t, chosen, 0)
	require.True(t, candidates[chosen].Pass)
	require.Equal(t, "sqrt", candidates[chosen].Name)
	// every candidate carries a fit and its diagnostics
	for _, c := range candidates {
		require.NotNil(t, c.Fit)
		require.NotNil(t, c.Checks)
		require.Equal(t, c.Checks.NormalOK && c.Checks.ConstantVarOK, c.Pass)
	}
	// the quadratic candidate expands the predictors
	quad := candidates[len(candidates)-1]
	require.Equal(t, []string{"x", "xSq"}, quad.Predictors)
}
