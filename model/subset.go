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
)

// Subset selection over the predictor set, ranked by adjusted R2 and
// Mallows' Cp. With four predictors the exhaustive enumeration is cheap; the
// stepwise strategies are reported as well because their paths are part of
// the analysis output.

// SubsetFit summarizes one candidate predictor subset.
type SubsetFit struct {
	Predictors []string
	P          int // estimated coefficients, intercept included
	SSE        float64
	R2         float64
	AdjR2      float64
	Cp         float64 // SSE_p/MSE_full - (n - 2p)
}

func subsetFit(ds *Dataset, response string, predictors []string, mseFull float64) (SubsetFit, error) {
	f, err := FitOLS(ds, response, predictors)
	if err != nil {
		return SubsetFit{}, err
	}
	return SubsetFit{
		Predictors: predictors,
		P:          f.P,
		SSE:        f.SSE,
		R2:         f.R2,
		AdjR2:      f.AdjR2,
		Cp:         f.SSE/mseFull - float64(f.N-2*f.P),
	}, nil
}

// AllSubsets enumerates every non-empty subset of the predictors and fits
// each candidate model.
func AllSubsets(ds *Dataset, response string, predictors []string) ([]SubsetFit, error) {
	full, err := FitOLS(ds, response, predictors)
	if err != nil {
		return nil, err
	}
	var out []SubsetFit
	k := len(predictors)
	// enumerate by size so smaller subsets come first
	for size := 1; size <= k; size++ {
		for mask := 1; mask < 1<<k; mask++ {
			var sub []string
			for j := 0; j < k; j++ {
				if mask&(1<<j) != 0 {
					sub = append(sub, predictors[j])
				}
			}
			if len(sub) != size {
				continue
			}
			sf, err := subsetFit(ds, response, sub, full.MSE)
			if err != nil {
				return nil, err
			}
			out = append(out, sf)
		}
	}
	return out, nil
}

// ForwardSelection adds at each step the predictor whose addition most
// reduces the residual sum of squares, and returns the path of fits.
func ForwardSelection(ds *Dataset, response string, predictors []string) ([]SubsetFit, error) {
	full, err := FitOLS(ds, response, predictors)
	if err != nil {
		return nil, err
	}
	var path []SubsetFit
	var current []string
	remaining := append([]string{}, predictors...)
	for len(remaining) > 0 {
		bestIdx := -1
		bestSSE := 0.0
		for i, cand := range remaining {
			f, err := FitOLS(ds, response, append(append([]string{}, current...), cand))
			if err != nil {
				return nil, err
			}
			if bestIdx < 0 || f.SSE < bestSSE {
				bestIdx = i
				bestSSE = f.SSE
			}
		}
		current = append(current, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		sf, err := subsetFit(ds, response, append([]string{}, current...), full.MSE)
		if err != nil {
			return nil, err
		}
		path = append(path, sf)
	}
	return path, nil
}

// BackwardElimination removes at each step the predictor whose removal least
// increases the residual sum of squares, starting from the full model, and
// returns the path of fits including the full model.
func BackwardElimination(ds *Dataset, response string, predictors []string) ([]SubsetFit, error) {
	full, err := FitOLS(ds, response, predictors)
	if err != nil {
		return nil, err
	}
	current := append([]string{}, predictors...)
	sf, err := subsetFit(ds, response, append([]string{}, current...), full.MSE)
	if err != nil {
		return nil, err
	}
	path := []SubsetFit{sf}
	for len(current) > 1 {
		bestIdx := -1
		bestSSE := 0.0
		for i := range current {
			sub := append([]string{}, current[:i]...)
			sub = append(sub, current[i+1:]...)
			f, err := FitOLS(ds, response, sub)
			if err != nil {
				return nil, err
			}
			if bestIdx < 0 || f.SSE < bestSSE {
				bestIdx = i
				bestSSE = f.SSE
			}
		}
		current = append(current[:bestIdx], current[bestIdx+1:]...)
		sf, err := subsetFit(ds, response, append([]string{}, current...), full.MSE)
		if err != nil {
			return nil, err
		}
		path = append(path, sf)
	}
	return path, nil
}

// SelectSubset applies the rule of thumb: among subsets whose Cp does not
// exceed p+1 (little evidence of bias), pick the smallest one, breaking ties
// on adjusted R2. If no subset qualifies, the one with the highest adjusted
// R2 is returned.
func SelectSubset(subsets []SubsetFit) (SubsetFit, error) {
	if len(subsets) == 0 {
		return SubsetFit{}, fmt.Errorf("select subset: no candidates")
	}
	best := -1
	for i, s := range subsets {
		if s.Cp > float64(s.P)+1.0 {
			continue
		}
		if best < 0 || s.P < subsets[best].P ||
			(s.P == subsets[best].P && s.AdjR2 > subsets[best].AdjR2) {
			best = i
		}
	}
	if best >= 0 {
		return subsets[best], nil
	}
	for i, s := range subsets {
		if best < 0 || s.AdjR2 > subsets[best].AdjR2 {
			best = i
		}
	}
	return subsets[best], nil
}
