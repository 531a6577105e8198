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

package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"survdiag/model"
	"survdiag/stats"
)

func buildSurgeryReport(t *testing.T) (*Report, *model.Dataset) {
	t.Helper()
	ds, err := ParseSurgicalData("../testdata/surgery.csv")
	require.NoError(t, err)
	rep := &Report{Name: "surgery", Alpha: 0.05, ChosenTransform: -1}

	surv, _ := ds.Column(model.ResponseName)
	rep.Descriptives = append(rep.Descriptives,
		DescriptiveRow{Column: model.ResponseName, Summary: stats.Describe(surv, 0.95)})
	a2, p, err := stats.AndersonDarling(surv)
	require.NoError(t, err)
	rep.Normality = append(rep.Normality, NormalityRow{Column: model.ResponseName, A2: a2, PValue: p})
	for _, name := range model.PredictorNames {
		values, _ := ds.Column(name)
		rho, pv, err := stats.SpearmanRho(surv, values)
		require.NoError(t, err)
		rep.Correlations = append(rep.Correlations, CorrelationRow{Predictor: name, Rho: rho, PValue: pv})
	}

	full, err := model.FitOLS(ds, model.ResponseName, model.PredictorNames)
	require.NoError(t, err)
	reduced, err := model.FitOLS(ds, model.ResponseName, model.PredictorNames[:3])
	require.NoError(t, err)
	rep.Models = []ModelSummary{{Label: "full", Fit: full}, {Label: "reduced", Fit: reduced}}
	rep.FTest, err = model.PartialFTest(reduced, full)
	require.NoError(t, err)
	rep.FTestTerm = "LF"
	rep.ChosenModel = reduced

	rep.Subsets, err = model.AllSubsets(ds, model.ResponseName, model.PredictorNames)
	require.NoError(t, err)
	rep.Forward, err = model.ForwardSelection(ds, model.ResponseName, model.PredictorNames)
	require.NoError(t, err)
	rep.Backward, err = model.BackwardElimination(ds, model.ResponseName, model.PredictorNames)
	require.NoError(t, err)
	rep.SubsetChoice, err = model.SelectSubset(rep.Subsets)
	require.NoError(t, err)

	rep.Transforms, rep.ChosenTransform, rep.BoxCox, err = model.SearchTransforms(
		ds, model.ResponseName, rep.SubsetChoice.Predictors, 0.05, -2.0, 2.0, 0.1)
	require.NoError(t, err)

	rep.CorrNames = model.PredictorNames
	rep.CorrMatrix, err = model.CorrelationMatrix(ds, model.PredictorNames)
	require.NoError(t, err)
	rep.VIFs, err = model.VIF(ds, model.PredictorNames)
	require.NoError(t, err)

	rep.Thresholds = model.DefaultThresholds(reduced.N, reduced.P, "4/n", 10.0)
	rep.Influence = model.Influence(ds, reduced, rep.Thresholds)
	rep.HoldOut, err = model.HoldOut(ds, reduced, 9)
	require.NoError(t, err)
	return rep, ds
}

func TestWriteReports(t *testing.T) {
	rep, _ := buildSurgeryReport(t)
	dir := t.TempDir() + string(filepath.Separator)
	WriteReports(rep, dir)
	suffixes := []string{
		"descriptive.tab", "normality.tab", "correlation.tab", "models.tab",
		"subsets.tab", "transforms.tab", "collinearity.tab", "influence.tab",
		"flagged.csv",
	}
	for _, suffix := range suffixes {
		info, err := os.Stat(filepath.Join(dir, "surgery-"+suffix))
		require.NoError(t, err, suffix)
		require.Greater(t, info.Size(), int64(0), suffix)
	}
	models, err := os.ReadFile(filepath.Join(dir, "surgery-models.tab"))
	require.NoError(t, err)
	require.Contains(t, string(models), "SurvTime ~ BCS + PI + EF + LF")
	require.Contains(t, string(models), "Partial F test for dropping LF")
	flagged, err := os.ReadFile(filepath.Join(dir, "surgery-flagged.csv"))
	require.NoError(t, err)
	require.Contains(t, string(flagged), "\n9,")
	subsets, err := os.ReadFile(filepath.Join(dir, "surgery-subsets.tab"))
	require.NoError(t, err)
	require.Contains(t, string(subsets), "Selected subset:\tBCS+PI+EF")
}

func TestWritePlots(t *testing.T) {
	rep, ds := buildSurgeryReport(t)
	dir := t.TempDir()
	require.NoError(t, WritePlots(rep, ds, dir))
	for _, name := range []string{
		"surgery-qq-SurvTime.png",
		"surgery-scatter-SurvTime-BCS.png",
		"surgery-residuals-fitted.png",
		"surgery-influence-leverage.png",
		"surgery-influence-rstudent.png",
		"surgery-influence-dffits.png",
		"surgery-influence-cooksd.png",
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		require.Greater(t, info.Size(), int64(0), name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	count := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".png") {
			count++
		}
	}
	// one QQ plot per column, one scatter per predictor, residuals, 4 index plots
	require.Equal(t, 5+4+1+4, count)
}
