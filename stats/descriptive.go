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

package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"survdiag/utils"
)

// Summary holds the descriptive statistics for one numeric column.
type Summary struct {
	N      int
	Mean   float64
	SD     float64
	StdErr float64
	CILow  float64
	CIHigh float64
}

// dropNaN returns the values of xs with missing values excluded.
func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe computes count, mean, sample standard deviation, standard error
// and the two-sided confidence interval at the given level using the t
// distribution with n-1 degrees of freedom. Missing values are excluded.
// With fewer than 2 non-missing values the spread and interval are
// indeterminate and reported as NaN rather than raising an error.
func Describe(xs []float64, confidence float64) Summary {
	vs := dropNaN(xs)
	n := len(vs)
	s := Summary{N: n, Mean: math.NaN(), SD: math.NaN(), StdErr: math.NaN(), CILow: math.NaN(), CIHigh: math.NaN()}
	if n == 0 {
		return s
	}
	s.Mean = stat.Mean(vs, nil)
	if n < 2 {
		return s
	}
	s.SD = stat.StdDev(vs, nil)
	s.StdErr = s.SD / math.Sqrt(float64(n))
	tq := utils.StudentTQuantile(0.5+confidence/2.0, float64(n-1))
	s.CILow = s.Mean - tq*s.StdErr
	s.CIHigh = s.Mean + tq*s.StdErr
	return s
}
