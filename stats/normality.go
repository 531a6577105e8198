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
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// QQPoints returns the theoretical standard normal quantiles at the plotting
// positions (i - 0.5)/n and the sorted sample values, for quantile-quantile
// comparison. Missing values are excluded.
func QQPoints(xs []float64) (theoretical, sample []float64) {
	vs := dropNaN(xs)
	sort.Float64s(vs)
	n := len(vs)
	theoretical = make([]float64, n)
	for i := 0; i < n; i++ {
		theoretical[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / float64(n))
	}
	return theoretical, vs
}

// AndersonDarling tests the composite hypothesis that the sample is drawn
// from a normal distribution with unknown mean and variance. It returns the
// A2 statistic and a p-value based on Stephens' small-sample modification
// (D'Agostino & Stephens 1986, case where both parameters are estimated).
// The approximation requires at least 8 observations.
func AndersonDarling(xs []float64) (a2, p float64, err error) {
	vs := dropNaN(xs)
	n := len(vs)
	if n < 8 {
		return 0, 0, fmt.Errorf("anderson-darling: need at least 8 observations, got %d", n)
	}
	mean := 0.0
	for _, v := range vs {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range vs {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 {
		return 0, 0, fmt.Errorf("anderson-darling: sample is constant")
	}
	z := make([]float64, n)
	for i, v := range vs {
		z[i] = (v - mean) / sd
	}
	sort.Float64s(z)
	s := 0.0
	for i := 0; i < n; i++ {
		cdfLo := distuv.UnitNormal.CDF(z[i])
		cdfHi := distuv.UnitNormal.CDF(z[n-1-i])
		// clamp away from 0 and 1 so the logs stay finite
		cdfLo = math.Min(math.Max(cdfLo, 1e-300), 1-1e-16)
		cdfHi = math.Min(math.Max(cdfHi, 1e-300), 1-1e-16)
		s += float64(2*i+1) * (math.Log(cdfLo) + math.Log(1.0-cdfHi))
	}
	a2 = -float64(n) - s/float64(n)
	nn := float64(n)
	astar := a2 * (1.0 + 0.75/nn + 2.25/(nn*nn))
	switch {
	case astar >= 0.6:
		p = math.Exp(1.2937 - 5.709*astar + 0.0186*astar*astar)
	case astar > 0.34:
		p = math.Exp(0.9177 - 4.279*astar - 1.38*astar*astar)
	case astar > 0.2:
		p = 1.0 - math.Exp(-8.318+42.796*astar-59.938*astar*astar)
	default:
		p = 1.0 - math.Exp(-13.436+101.14*astar-223.73*astar*astar)
	}
	p = math.Min(math.Max(p, 0.0), 1.0)
	return a2, p, nil
}
