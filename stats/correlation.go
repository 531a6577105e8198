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

	"gonum.org/v1/gonum/stat"
	"survdiag/utils"
)

// averageRanks assigns 1-based ranks to the values, with ties receiving the
// average of the ranks they span.
func averageRanks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// SpearmanRho computes the Spearman rank correlation between x and y and its
// two-sided p-value under the null of no monotonic association, using the t
// approximation with n-2 degrees of freedom. Pairs with a missing value in
// either variable are excluded.
func SpearmanRho(x, y []float64) (rho, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("spearman: length mismatch %d vs %d", len(x), len(y))
	}
	var cx, cy []float64
	for i := range x {
		if !math.IsNaN(x[i]) && !math.IsNaN(y[i]) {
			cx = append(cx, x[i])
			cy = append(cy, y[i])
		}
	}
	n := len(cx)
	if n < 3 {
		return 0, 0, fmt.Errorf("spearman: need at least 3 complete pairs, got %d", n)
	}
	rho = stat.Correlation(averageRanks(cx), averageRanks(cy), nil)
	if math.Abs(rho) >= 1.0 {
		return rho, 0.0, nil
	}
	t := rho * math.Sqrt(float64(n-2)/(1.0-rho*rho))
	return rho, utils.StudentTPValue(t, float64(n-2)), nil
}
