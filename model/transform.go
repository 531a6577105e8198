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
)

// Transformation search over the response: identity, log, square root,
// reciprocal, the Box-Cox optimal power, and a second-degree polynomial
// expansion of the predictors. Candidates are refit and their residual
// diagnostics re-run; the selection prefers candidates that satisfy both
// assumption checks with the least evidence against them.

// BoxCoxResult holds the profile log-likelihood of the power-transformed
// response over a grid of exponents.
type BoxCoxResult struct {
	Lambdas    []float64
	LogLik     []float64
	Best       float64
	BestLogLik float64
}

// checkPositiveResponse reports a DataError for the first observation, among
// the rows in use, whose response is zero or negative.
func checkPositiveResponse(ds *Dataset, response string, rows []int, reason string) error {
	y, ok := ds.Column(response)
	if !ok {
		return fmt.Errorf("unknown column %s", response)
	}
	for _, r := range rows {
		if !math.IsNaN(y[r]) && y[r] <= 0 {
			return &DataError{ID: ds.IDs[r], Column: response, Reason: reason}
		}
	}
	return nil
}

// BoxCoxLogLikelihood computes the profile log-likelihood of the Box-Cox
// power transform at a single exponent, for the given design: L(lambda) =
// -(n/2) ln(SSE_lambda/n) + (lambda-1) sum(ln y).
func BoxCoxLogLikelihood(f *Fit, lambda float64) (float64, error) {
	n := f.N
	ty := make([]float64, n)
	logSum := 0.0
	for i, v := range f.y {
		if v <= 0 {
			return 0, fmt.Errorf("box-cox: non-positive response %g", v)
		}
		logSum += math.Log(v)
		if math.Abs(lambda) < 1e-9 {
			ty[i] = math.Log(v)
		} else {
			ty[i] = (math.Pow(v, lambda) - 1.0) / lambda
		}
	}
	beta, _, err := olsSolve(f.x, ty)
	if err != nil {
		return 0, err
	}
	sse := 0.0
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < f.P; j++ {
			fit += f.x.At(i, j) * beta[j]
		}
		sse += (ty[i] - fit) * (ty[i] - fit)
	}
	return -float64(n)/2.0*math.Log(sse/float64(n)) + (lambda-1.0)*logSum, nil
}

// BoxCox profiles the Box-Cox log-likelihood of the response over the
// exponent grid [lmin, lmax] with the given step, under the linear model with
// the given predictors. The response must be strictly positive on every
// observation in use.
func BoxCox(ds *Dataset, response string, predictors []string, lmin, lmax, step float64) (*BoxCoxResult, error) {
	if step <= 0 || lmax < lmin {
		return nil, fmt.Errorf("box-cox: bad grid [%g, %g] step %g", lmin, lmax, step)
	}
	base, err := FitOLS(ds, response, predictors)
	if err != nil {
		return nil, err
	}
	if err := checkPositiveResponse(ds, response, base.Rows, "non-positive value, Box-Cox transform undefined"); err != nil {
		return nil, err
	}
	m := int((lmax-lmin)/step+0.5) + 1
	res := &BoxCoxResult{
		Lambdas: make([]float64, m),
		LogLik:  make([]float64, m),
	}
	errs := make([]error, m)
	parallel.Range(0, m, 0, func(low, high int) {
		for i := low; i < high; i++ {
			lambda := lmin + float64(i)*step
			res.Lambdas[i] = lambda
			res.LogLik[i], errs[i] = BoxCoxLogLikelihood(base, lambda)
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	best := 0
	for i := 1; i < m; i++ {
		if res.LogLik[i] > res.LogLik[best] {
			best = i
		}
	}
	res.Best = res.Lambdas[best]
	res.BestLogLik = res.LogLik[best]
	return res, nil
}

// InterpretLambda maps a Box-Cox exponent onto the conventional simple
// transform it is indistinguishable from.
func InterpretLambda(lambda float64) string {
	switch {
	case math.Abs(lambda) <= 0.05:
		return "log"
	case math.Abs(lambda-0.5) <= 0.05:
		return "sqrt"
	case math.Abs(lambda+1.0) <= 0.05:
		return "reciprocal"
	case math.Abs(lambda-1.0) <= 0.05:
		return "identity"
	default:
		return "power"
	}
}

// DeriveResponse appends a transformed copy of the response column and
// returns its name. The transform must be defined for every non-missing
// response value; an undefined value fails fast with a DataError identifying
// the record.
func DeriveResponse(ds *Dataset, response, transform string, lambda float64) (string, error) {
	y, ok := ds.Column(response)
	if !ok {
		return "", fmt.Errorf("unknown column %s", response)
	}
	var name string
	var apply func(float64) float64
	requirePositive := false
	switch transform {
	case "log":
		name = "Log" + response
		apply = math.Log
		requirePositive = true
	case "sqrt":
		name = "Sqrt" + response
		apply = math.Sqrt
		requirePositive = true
	case "reciprocal":
		name = "Inv" + response
		apply = func(v float64) float64 { return 1.0 / v }
		requirePositive = true
	case "power":
		name = fmt.Sprintf("Pow%s", response)
		apply = func(v float64) float64 { return (math.Pow(v, lambda) - 1.0) / lambda }
		requirePositive = true
	default:
		return "", fmt.Errorf("unknown response transform %s", transform)
	}
	values := make([]float64, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			values[i] = math.NaN()
			continue
		}
		if requirePositive && v <= 0 {
			return "", &DataError{ID: ds.IDs[i], Column: response,
				Reason: fmt.Sprintf("non-positive value, %s transform undefined", transform)}
		}
		values[i] = apply(v)
	}
	if _, exists := ds.Column(name); !exists {
		if err := ds.AddDerived(name, values); err != nil {
			return "", err
		}
	}
	return name, nil
}

// deriveSquares appends squared copies of the predictor columns and returns
// the expanded predictor list.
func deriveSquares(ds *Dataset, predictors []string) ([]string, error) {
	expanded := append([]string{}, predictors...)
	for _, name := range predictors {
		sq := name + "Sq"
		if _, exists := ds.Column(sq); !exists {
			c, ok := ds.Column(name)
			if !ok {
				return nil, fmt.Errorf("unknown column %s", name)
			}
			values := make([]float64, len(c))
			for i, v := range c {
				values[i] = v * v
			}
			if err := ds.AddDerived(sq, values); err != nil {
				return nil, err
			}
		}
		expanded = append(expanded, sq)
	}
	return expanded, nil
}

// TransformCandidate is one entry of the transformation search: a response
// specification, its fit, and the residual diagnostics of that fit.
type TransformCandidate struct {
	Name       string
	Response   string // column the model was fit against
	Predictors []string
	Lambda     float64 // Box-Cox exponent, NaN when not applicable
	Fit        *Fit
	Checks     *ResidualChecks
	Pass       bool
}

// SearchTransforms refits the model under each candidate transform and
// re-runs the residual diagnostics. It returns the candidates in order of
// increasing functional complexity and the index of the selected candidate:
// among those passing both checks, the one with the highest smaller residual
// p-value, ties resolved in favor of the simpler form. The index is -1 when
// no candidate passes.
func SearchTransforms(ds *Dataset, response string, predictors []string, alpha, lmin, lmax, step float64) ([]TransformCandidate, int, *BoxCoxResult, error) {
	bc, err := BoxCox(ds, response, predictors, lmin, lmax, step)
	if err != nil {
		return nil, -1, nil, err
	}
	type spec struct {
		name      string
		transform string // "" means identity response
		lambda    float64
		quadratic bool
	}
	specs := []spec{
		{name: "identity", lambda: math.NaN()},
		{name: "log", transform: "log", lambda: math.NaN()},
		{name: "sqrt", transform: "sqrt", lambda: math.NaN()},
		{name: "reciprocal", transform: "reciprocal", lambda: math.NaN()},
	}
	// the Box-Cox optimum is a separate candidate only when it is not one of
	// the named forms already in the list
	if InterpretLambda(bc.Best) == "power" {
		specs = append(specs, spec{name: fmt.Sprintf("boxcox(%.2f)", bc.Best), transform: "power", lambda: bc.Best})
	}
	specs = append(specs, spec{name: "quadratic", lambda: math.NaN(), quadratic: true})

	var out []TransformCandidate
	for _, s := range specs {
		respCol := response
		preds := predictors
		if s.transform != "" {
			respCol, err = DeriveResponse(ds, response, s.transform, s.lambda)
			if err != nil {
				return nil, -1, nil, err
			}
		}
		if s.quadratic {
			preds, err = deriveSquares(ds, predictors)
			if err != nil {
				return nil, -1, nil, err
			}
		}
		f, err := FitOLS(ds, respCol, preds)
		if err != nil {
			return nil, -1, nil, err
		}
		checks, err := DiagnoseResiduals(f, alpha)
		if err != nil {
			return nil, -1, nil, err
		}
		out = append(out, TransformCandidate{
			Name:       s.name,
			Response:   respCol,
			Predictors: preds,
			Lambda:     s.lambda,
			Fit:        f,
			Checks:     checks,
			Pass:       checks.NormalOK && checks.ConstantVarOK,
		})
	}
	chosen := -1
	bestScore := 0.0
	for i, c := range out {
		if !c.Pass {
			continue
		}
		score := math.Min(c.Checks.Normality.PValue, c.Checks.BreuschPagan.PValue)
		if chosen < 0 || score > bestScore {
			chosen = i
			bestScore = score
		}
	}
	return out, chosen, bc, nil
}
