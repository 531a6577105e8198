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

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"survdiag/app"
	"survdiag/model"
	"survdiag/stats"
)

/*
Survdiag is a tool for regression diagnostics on the surgical unit survival
data.

Usage:
	survdiag dataFile outputPath [flags]

Example:
	survdiag surgery.csv ./surgery-out/ --name surgery --alpha 0.05 --vifThreshold 10
	--cooksRule 4/n --lambdaMin -2 --lambdaMax 2 --lambdaStep 0.1 --holdOut 9

The flags are:

--alpha nr
	The significance threshold used by every hypothesis test in the analysis.
	Each test reports its statistic and p-value next to the decision.
--vifThreshold nr
	The variance-inflation factor above which a predictor is flagged as
	collinear. Conventional choices are 10 and 5.
--cooksRule 4/n | 1
	The rule of thumb for flagging Cook's distance: the sample-size rule 4/n
	or the absolute rule 1.
--lambdaMin nr, --lambdaMax nr, --lambdaStep nr
	The grid of Box-Cox exponents over which the profile log-likelihood of the
	power-transformed response is maximized.
--name string
	Sets the name of the analysis. This name is used to generate names for
	output files.
--holdOut nr
	The ID of an observation for the hold-out check: the model is refit with
	that observation's response removed and the prediction residual is
	contrasted with the in-sample residual. 0 disables the check.
--noPlots
	Skip rendering of the diagnostic plots.
--nrOfThreads nr
	The number of threads survdiag uses for the Box-Cox grid and the
	leave-one-out sweep.
*/

const (
	programVersion = 0.1
	programName    = "survdiag"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

const survdiagHelp = "\nsurvdiag parameters:\n" +
	"survdiag dataFile outputPath\n" +
	"[--alpha nr]\n" +
	"[--vifThreshold nr]\n" +
	"[--cooksRule 4/n | 1]\n" +
	"[--lambdaMin nr]\n" +
	"[--lambdaMax nr]\n" +
	"[--lambdaStep nr]\n" +
	"[--name string]\n" +
	"[--holdOut nr]\n" +
	"[--noPlots]\n" +
	"[--nrOfThreads nr]\n"

func parseFlags(flags flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprint(os.Stderr, err)
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprint(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func getFileName(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	return s
}

func main() {
	var (
		// required parameters
		dataFile   string //The CSV file with the surgical unit observations.
		outputPath string //The path where output files are written.
		// optional flags
		alpha        float64
		vifThreshold float64
		cooksRule    string
		lambdaMin    float64
		lambdaMax    float64
		lambdaStep   float64
		name         string
		holdOut      int
		noPlots      bool
		nrOfThreads  int
	)
	var flags flag.FlagSet
	// options for the survdiag command
	flags.Float64Var(&alpha, "alpha", 0.05, "The significance threshold used by every hypothesis "+
		"test in the analysis.")
	flags.Float64Var(&vifThreshold, "vifThreshold", 10.0, "The variance-inflation factor above "+
		"which a predictor is flagged as collinear.")
	flags.StringVar(&cooksRule, "cooksRule", "4/n", "The rule of thumb for flagging Cook's "+
		"distance: 4/n or 1.")
	flags.Float64Var(&lambdaMin, "lambdaMin", -2.0, "The lower end of the Box-Cox exponent grid.")
	flags.Float64Var(&lambdaMax, "lambdaMax", 2.0, "The upper end of the Box-Cox exponent grid.")
	flags.Float64Var(&lambdaStep, "lambdaStep", 0.1, "The step of the Box-Cox exponent grid.")
	flags.StringVar(&name, "name", "surgery", "The name of the analysis. This is used to generate "+
		"the names of the output files.")
	flags.IntVar(&holdOut, "holdOut", 0, "The ID of an observation for the hold-out check. 0 "+
		"disables the check.")
	flags.BoolVar(&noPlots, "noPlots", false, "Skip rendering of the diagnostic plots.")
	flags.IntVar(&nrOfThreads, "nrOfThreads", 0, "The number of threads survdiag uses.")
	// parse optional arguments
	parseFlags(flags, 3, survdiagHelp)
	// parse required arguments
	dataFile = getFileName(os.Args[1], survdiagHelp)
	outputPath, _ = filepath.Abs(getFileName(os.Args[2], survdiagHelp))
	outputPath = outputPath + string(filepath.Separator)
	fmt.Println("Output path: ", outputPath)
	// create output directory
	err := os.MkdirAll(filepath.Dir(outputPath), 0700)
	if err != nil {
		panic(err)
	}
	// build an output command line
	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " ", dataFile, " ", outputPath)
	fmt.Fprint(&command, " --alpha ", alpha)
	fmt.Fprint(&command, " --vifThreshold ", vifThreshold)
	fmt.Fprint(&command, " --cooksRule ", cooksRule)
	fmt.Fprint(&command, " --lambdaMin ", lambdaMin)
	fmt.Fprint(&command, " --lambdaMax ", lambdaMax)
	fmt.Fprint(&command, " --lambdaStep ", lambdaStep)
	fmt.Fprint(&command, " --name ", name)
	if holdOut != 0 {
		fmt.Fprint(&command, " --holdOut ", holdOut)
	}
	if noPlots {
		fmt.Fprint(&command, " --noPlots")
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nrOfThreads ", nrOfThreads)
	}
	// start execution
	log.Println(programMessage())
	log.Println("Executing command:\n", command.String())
	rep, ds, err := runAnalysis(dataFile, name, alpha, vifThreshold, cooksRule, lambdaMin, lambdaMax, lambdaStep, holdOut)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Writing reports...")
	app.WriteReports(rep, outputPath)
	if !noPlots {
		fmt.Println("Rendering plots...")
		if err := app.WritePlots(rep, ds, outputPath); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("Done.")
}

// runAnalysis executes the full diagnostic pipeline on the input file and
// assembles the report.
func runAnalysis(dataFile, name string, alpha, vifThreshold float64, cooksRule string, lambdaMin, lambdaMax, lambdaStep float64, holdOut int) (*app.Report, *model.Dataset, error) {
	rep := &app.Report{Name: name, Alpha: alpha, ChosenTransform: -1}
	//1. Parse input into a dataset
	ds, err := app.ParseSurgicalData(dataFile)
	if err != nil {
		return nil, nil, err
	}
	//2. Descriptive statistics and normality per variable
	fmt.Println("Computing descriptive statistics...")
	columns := append(append([]string{}, model.PredictorNames...), model.ResponseName)
	for _, column := range columns {
		values, _ := ds.Column(column)
		rep.Descriptives = append(rep.Descriptives, app.DescriptiveRow{Column: column, Summary: stats.Describe(values, 0.95)})
		a2, p, err := stats.AndersonDarling(values)
		if err != nil {
			return nil, nil, err
		}
		rep.Normality = append(rep.Normality, app.NormalityRow{Column: column, A2: a2, PValue: p})
	}
	//3. Rank correlation of the response with each predictor
	fmt.Println("Computing rank correlations...")
	response, _ := ds.Column(model.ResponseName)
	for _, predictor := range model.PredictorNames {
		values, _ := ds.Column(predictor)
		rho, p, err := stats.SpearmanRho(response, values)
		if err != nil {
			return nil, nil, err
		}
		rep.Correlations = append(rep.Correlations, app.CorrelationRow{Predictor: predictor, Rho: rho, PValue: p})
	}
	//4. Fit the nested candidate models and compare them
	fmt.Println("Fitting candidate models...")
	full, err := model.FitOLS(ds, model.ResponseName, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	reduced, err := model.FitOLS(ds, model.ResponseName, model.PredictorNames[:3])
	if err != nil {
		return nil, nil, err
	}
	rep.Models = append(rep.Models,
		app.ModelSummary{Label: "full", Fit: full},
		app.ModelSummary{Label: "reduced", Fit: reduced})
	rep.FTest, err = model.PartialFTest(reduced, full)
	if err != nil {
		return nil, nil, err
	}
	rep.FTestTerm = model.PredictorNames[3]
	//5. Subset selection
	fmt.Println("Searching predictor subsets...")
	rep.Subsets, err = model.AllSubsets(ds, model.ResponseName, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	rep.Forward, err = model.ForwardSelection(ds, model.ResponseName, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	rep.Backward, err = model.BackwardElimination(ds, model.ResponseName, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	rep.SubsetChoice, err = model.SelectSubset(rep.Subsets)
	if err != nil {
		return nil, nil, err
	}
	fmt.Println("Selected subset: ", rep.SubsetChoice.Predictors)
	//6. Transformation search on the selected subset
	fmt.Println("Searching response transformations...")
	rep.Transforms, rep.ChosenTransform, rep.BoxCox, err = model.SearchTransforms(
		ds, model.ResponseName, rep.SubsetChoice.Predictors, alpha, lambdaMin, lambdaMax, lambdaStep)
	if err != nil {
		return nil, nil, err
	}
	chosen, err := model.FitOLS(ds, model.ResponseName, rep.SubsetChoice.Predictors)
	if err != nil {
		return nil, nil, err
	}
	if rep.ChosenTransform >= 0 {
		c := rep.Transforms[rep.ChosenTransform]
		fmt.Println("Selected transform: ", c.Name)
		chosen = c.Fit
	} else {
		fmt.Println("No transform satisfies both residual assumptions; keeping the untransformed response.")
	}
	rep.ChosenModel = chosen
	//7. Collinearity checks over the candidate predictors
	fmt.Println("Checking collinearity...")
	rep.CorrNames = model.PredictorNames
	rep.CorrMatrix, err = model.CorrelationMatrix(ds, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	rep.VIFs, err = model.VIF(ds, model.PredictorNames)
	if err != nil {
		return nil, nil, err
	}
	//8. Influence and outlier measures on the chosen model
	fmt.Println("Computing influence measures...")
	rep.Thresholds = model.DefaultThresholds(chosen.N, chosen.P, cooksRule, vifThreshold)
	rep.Influence = model.Influence(ds, chosen, rep.Thresholds)
	flagged := 0
	for _, r := range rep.Influence {
		if r.Flagged {
			flagged++
		}
	}
	fmt.Println("Flagged observations: ", flagged)
	if holdOut != 0 {
		rep.HoldOut, err = model.HoldOut(ds, chosen, holdOut)
		if err != nil {
			return nil, nil, err
		}
		fmt.Println("Hold-out check for observation ", holdOut,
			": in-sample residual ", rep.HoldOut.InSample,
			", prediction residual ", rep.HoldOut.OutOfSample)
	}
	return rep, ds, nil
}
