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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"survdiag/model"
	"survdiag/stats"
)

// Writing of analysis results to tab files

// DescriptiveRow pairs a column name with its descriptive statistics.
type DescriptiveRow struct {
	Column string
	stats.Summary
}

// NormalityRow holds the normality assessment of one variable.
type NormalityRow struct {
	Column string
	A2     float64
	PValue float64
}

// CorrelationRow holds the rank correlation of the response with one
// predictor.
type CorrelationRow struct {
	Predictor string
	Rho       float64
	PValue    float64
}

// ModelSummary labels a fitted model for reporting.
type ModelSummary struct {
	Label string
	Fit   *model.Fit
}

// Report collects all analysis results for rendering. It is assembled by the
// pipeline in main and consumed by the report and plot writers.
type Report struct {
	Name  string
	Alpha float64

	Descriptives []DescriptiveRow
	Normality    []NormalityRow
	Correlations []CorrelationRow

	Models      []ModelSummary
	FTest       *model.FTestResult
	FTestTerm   string // the predictor(s) dropped in the nested comparison
	ChosenModel *model.Fit

	Subsets      []model.SubsetFit
	Forward      []model.SubsetFit
	Backward     []model.SubsetFit
	SubsetChoice model.SubsetFit

	Transforms      []model.TransformCandidate
	ChosenTransform int
	BoxCox          *model.BoxCoxResult

	VIFs       map[string]float64
	CorrNames  []string
	CorrMatrix *mat.SymDense

	Influence  []model.InfluenceRecord
	Thresholds model.Thresholds
	HoldOut    *model.HoldOutResult
}

func createReportFile(path, name, suffix string) *os.File {
	file, err := os.Create(filepath.Join(path, fmt.Sprintf("%s-%s", name, suffix)))
	if err != nil {
		panic(err)
	}
	return file
}

func writeDescriptiveTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "descriptive.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "Column\tN\tMean\tSD\tStdErr\tCI95Low\tCI95High\n")
	for _, r := range rep.Descriptives {
		fmt.Fprintf(file, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			r.Column, r.N, r.Mean, r.SD, r.StdErr, r.CILow, r.CIHigh)
	}
}

func writeNormalityTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "normality.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "Column\tA2\tPValue\tDecision(alpha=%.2f)\n", rep.Alpha)
	for _, r := range rep.Normality {
		decision := "normal"
		if r.PValue < rep.Alpha {
			decision = "not normal"
		}
		fmt.Fprintf(file, "%s\t%.4f\t%.4f\t%s\n", r.Column, r.A2, r.PValue, decision)
	}
}

func writeCorrelationTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "correlation.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "Predictor\tSpearmanRho\tPValue\tDecision(alpha=%.2f)\n", rep.Alpha)
	for _, r := range rep.Correlations {
		decision := "no association"
		if r.PValue < rep.Alpha {
			decision = "associated"
		}
		fmt.Fprintf(file, "%s\t%.4f\t%.4g\t%s\n", r.Predictor, r.Rho, r.PValue, decision)
	}
}

func writeModelsTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "models.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	for _, m := range rep.Models {
		f := m.Fit
		fmt.Fprintf(file, "Model:\t%s\t%s ~ %s\n", m.Label, f.Response, strings.Join(f.Predictors, " + "))
		fmt.Fprintf(file, "N:\t%d\tResidualDF:\t%d\tSSE:\t%.4f\tR2:\t%.4f\tAdjR2:\t%.4f\n",
			f.N, f.ResidualDF, f.SSE, f.R2, f.AdjR2)
		fmt.Fprintf(file, "Coefficient\tEstimate\tStdErr\tT\tPValue\n")
		for j, name := range f.CoefNames() {
			fmt.Fprintf(file, "%s\t%.6f\t%.6f\t%.4f\t%.4g\n", name, f.Coef[j], f.StdErr[j], f.TStat[j], f.PValue[j])
		}
		fmt.Fprintf(file, "\n")
	}
	if rep.FTest != nil {
		fmt.Fprintf(file, "Partial F test for dropping %s:\tF(%d,%d) = %.4f\tPValue = %.4f\n",
			rep.FTestTerm, rep.FTest.DFNum, rep.FTest.DFDen, rep.FTest.F, rep.FTest.PValue)
		decision := "cannot be dropped"
		if rep.FTest.PValue >= rep.Alpha {
			decision = "may be dropped without significant loss of fit"
		}
		fmt.Fprintf(file, "Decision (alpha=%.2f):\t%s %s\n", rep.Alpha, rep.FTestTerm, decision)
	}
}

func writeSubsetTable(file *os.File, header string, subsets []model.SubsetFit) {
	fmt.Fprintf(file, "%s\n", header)
	fmt.Fprintf(file, "Predictors\tP\tSSE\tAdjR2\tCp\n")
	for _, s := range subsets {
		fmt.Fprintf(file, "%s\t%d\t%.4f\t%.4f\t%.4f\n", strings.Join(s.Predictors, "+"), s.P, s.SSE, s.AdjR2, s.Cp)
	}
	fmt.Fprintf(file, "\n")
}

func writeSubsetsTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "subsets.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	writeSubsetTable(file, "All subsets:", rep.Subsets)
	writeSubsetTable(file, "Forward selection path:", rep.Forward)
	writeSubsetTable(file, "Backward elimination path:", rep.Backward)
	fmt.Fprintf(file, "Selected subset:\t%s\t(Cp = %.4f, AdjR2 = %.4f)\n",
		strings.Join(rep.SubsetChoice.Predictors, "+"), rep.SubsetChoice.Cp, rep.SubsetChoice.AdjR2)
}

func writeTransformsTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "transforms.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "Transform\tResponse\tNormalityA2\tNormalityP\tBreuschPaganLM\tBreuschPaganP\tPass(alpha=%.2f)\n", rep.Alpha)
	for _, c := range rep.Transforms {
		fmt.Fprintf(file, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%t\n",
			c.Name, c.Response, c.Checks.Normality.Stat, c.Checks.Normality.PValue,
			c.Checks.BreuschPagan.Stat, c.Checks.BreuschPagan.PValue, c.Pass)
	}
	if rep.BoxCox != nil {
		fmt.Fprintf(file, "\nBox-Cox optimal lambda:\t%.2f\t(%s)\tprofile log-likelihood:\t%.4f\n",
			rep.BoxCox.Best, model.InterpretLambda(rep.BoxCox.Best), rep.BoxCox.BestLogLik)
	}
	if rep.ChosenTransform >= 0 {
		fmt.Fprintf(file, "Selected transform:\t%s\n", rep.Transforms[rep.ChosenTransform].Name)
	} else {
		fmt.Fprintf(file, "Selected transform:\tnone (no candidate satisfies both assumptions)\n")
	}
}

func writeCollinearityTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "collinearity.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "Pairwise correlations:\n\t%s\n", strings.Join(rep.CorrNames, "\t"))
	for i, a := range rep.CorrNames {
		fmt.Fprintf(file, "%s", a)
		for j := range rep.CorrNames {
			fmt.Fprintf(file, "\t%.4f", rep.CorrMatrix.At(i, j))
		}
		fmt.Fprintf(file, "\n")
	}
	fmt.Fprintf(file, "\nPredictor\tVIF\tFlag(>%.1f)\n", rep.Thresholds.VIF)
	for _, name := range rep.CorrNames {
		if vif, ok := rep.VIFs[name]; ok {
			fmt.Fprintf(file, "%s\t%.4f\t%t\n", name, vif, vif > rep.Thresholds.VIF)
		}
	}
}

func writeInfluenceTable(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "influence.tab")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	th := rep.Thresholds
	fmt.Fprintf(file, "Thresholds:\tleverage>%.4f\t|t|>%.1f\t|DFFITS|>%.4f\tCooksD>%.4f\t|DFBETA|>%.4f\n",
		th.Leverage, th.Studentized, th.DFFITS, th.CooksD, th.DFBeta)
	fmt.Fprintf(file, "ID\tFitted\tResidual\tLeverage\tRStudent\tDFFITS\tCooksD\tFlags\n")
	for _, r := range rep.Influence {
		var flags []string
		if r.HighLeverage {
			flags = append(flags, "leverage")
		}
		if r.Outlier {
			flags = append(flags, "outlier")
		}
		if r.HighDFFITS {
			flags = append(flags, "dffits")
		}
		if r.HighCooksD {
			flags = append(flags, "cooksd")
		}
		fmt.Fprintf(file, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			r.ID, r.Fitted, r.Residual, r.Leverage, r.Studentized, r.DFFITS, r.CooksD, strings.Join(flags, ","))
	}
	if rep.HoldOut != nil {
		fmt.Fprintf(file, "\nHold-out check for observation %d:\tin-sample residual = %.4f\tprediction residual = %.4f\n",
			rep.HoldOut.ID, rep.HoldOut.InSample, rep.HoldOut.OutOfSample)
	}
}

// writeFlaggedCSV prints the flagged observations to a CSV file, one line per
// observation with the measures that flagged it.
func writeFlaggedCSV(rep *Report, path string) {
	file := createReportFile(path, rep.Name, "flagged.csv")
	defer func() {
		if err := file.Close(); err != nil {
			panic(err)
		}
	}()
	fmt.Fprintf(file, "ID,Leverage,RStudent,DFFITS,CooksD,HighLeverage,Outlier,HighDFFITS,HighCooksD\n")
	for _, r := range rep.Influence {
		if !r.Flagged {
			continue
		}
		fmt.Fprintf(file, "%d,%.4f,%.4f,%.4f,%.4f,%t,%t,%t,%t\n",
			r.ID, r.Leverage, r.Studentized, r.DFFITS, r.CooksD,
			r.HighLeverage, r.Outlier, r.HighDFFITS, r.HighCooksD)
	}
}

// WriteReports outputs the full analysis to tab files in the output path:
// descriptive statistics, normality assessments, rank correlations, model
// summaries with the nested F test, subset search results, transformation
// search results, collinearity checks, influence measures with their flags,
// and a CSV with only the flagged observations.
func WriteReports(rep *Report, path string) {
	writeDescriptiveTable(rep, path)
	writeNormalityTable(rep, path)
	writeCorrelationTable(rep, path)
	writeModelsTable(rep, path)
	writeSubsetsTable(rep, path)
	writeTransformsTable(rep, path)
	writeCollinearityTable(rep, path)
	writeInfluenceTable(rep, path)
	writeFlaggedCSV(rep, path)
}
