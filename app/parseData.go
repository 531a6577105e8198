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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"survdiag/model"
)

//The survdiag program has one data input: a CSV file with one record per
//patient of the surgical unit study. The columns are ID (integer, unique),
//the four preoperative predictor scores BCS (blood clotting score), PI
//(prognostic index), EF (enzyme function test), LF (liver function test),
//and SurvTime, the post-operative survival time (strictly positive). Missing
//values are represented by an empty field; they are never imputed.

var surgicalHeader = []string{"ID", "BCS", "PI", "EF", "LF", "SurvTime"}

// parseSurgicalField parses one numeric field. An empty field is an
// explicitly missing value and becomes NaN.
func parseSurgicalField(field string, column string, line int) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("record %d: column %s: cannot parse %q as a number", line, column, field)
	}
	return v, nil
}

// parseSurgicalRecord parses one CSV record into an observation ID and its
// five numeric values, validating the schema invariants that can be checked
// per record.
func parseSurgicalRecord(record []string, line int) (int, []float64, error) {
	if len(record) != len(surgicalHeader) {
		return 0, nil, fmt.Errorf("record %d: expected %d fields, got %d", line, len(surgicalHeader), len(record))
	}
	id, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return 0, nil, fmt.Errorf("record %d: cannot parse ID %q", line, record[0])
	}
	values := make([]float64, 5)
	for i := 1; i < len(surgicalHeader); i++ {
		v, err := parseSurgicalField(record[i], surgicalHeader[i], line)
		if err != nil {
			return 0, nil, err
		}
		values[i-1] = v
	}
	survTime := values[4]
	if !math.IsNaN(survTime) && survTime <= 0 {
		return 0, nil, &model.DataError{ID: id, Column: model.ResponseName,
			Reason: fmt.Sprintf("survival time must be strictly positive, got %g", survTime)}
	}
	return id, values, nil
}

// ParseSurgicalData reads the surgical unit CSV file into a Dataset. It
// enforces the header, unique identifiers, numeric or explicitly missing
// fields, and a strictly positive survival time.
func ParseSurgicalData(file string) (*model.Dataset, error) {
	fmt.Println("Parsing surgical unit data from CSV file: ", file)
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read header: %v", file, err)
	}
	if len(header) != len(surgicalHeader) {
		return nil, fmt.Errorf("%s: expected header %v, got %v", file, surgicalHeader, header)
	}
	for i, name := range surgicalHeader {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("%s: expected header %v, got %v", file, surgicalHeader, header)
		}
	}
	var ids []int
	columns := make([][]float64, 5)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %v", file, err)
		}
		line++
		id, values, err := parseSurgicalRecord(record, line)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		for i, v := range values {
			columns[i] = append(columns[i], v)
		}
	}
	names := append(append([]string{}, model.PredictorNames...), model.ResponseName)
	ds, err := model.NewDataset(ids, names, columns)
	if err != nil {
		return nil, err
	}
	fmt.Println("Parsed ", ds.N(), " observations.")
	return ds, nil
}
