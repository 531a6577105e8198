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
	"fmt"
	"math"
)

// The surgical unit schema: four preoperative predictor scores and the
// post-operative survival time as response.
var PredictorNames = []string{"BCS", "PI", "EF", "LF"}

// ResponseName is the name of the response column.
const ResponseName = "SurvTime"

// ErrNotIdentifiable is returned when a design matrix is rank deficient or
// numerically singular, so that no unique least-squares solution exists.
var ErrNotIdentifiable = errors.New("model not identifiable")

// DataError reports a validation problem for a single observation. The
// observation is identified so that the offending record can be corrected
// upstream instead of being silently dropped.
type DataError struct {
	ID     int
	Column string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data validation: observation %d: %s: %s", e.ID, e.Column, e.Reason)
}

// Dataset is an ordered collection of observations sharing the surgical unit
// schema. It is immutable after load, except for derived columns appended by
// the transformation step, which are pure functions of existing columns.
// Missing values are represented as NaN.
type Dataset struct {
	IDs     []int
	order   []string
	columns map[string][]float64
}

// NewDataset creates a dataset from per-column value slices. The ids must be
// unique and every column must have one value per observation.
func NewDataset(ids []int, names []string, columns [][]float64) (*Dataset, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("dataset: %d column names for %d columns", len(names), len(columns))
	}
	seen := map[int]bool{}
	for _, id := range ids {
		if seen[id] {
			return nil, &DataError{ID: id, Column: "ID", Reason: "duplicate identifier"}
		}
		seen[id] = true
	}
	ds := &Dataset{IDs: ids, columns: map[string][]float64{}}
	for i, name := range names {
		if len(columns[i]) != len(ids) {
			return nil, fmt.Errorf("dataset: column %s has %d values for %d observations", name, len(columns[i]), len(ids))
		}
		if _, ok := ds.columns[name]; ok {
			return nil, fmt.Errorf("dataset: duplicate column %s", name)
		}
		ds.order = append(ds.order, name)
		ds.columns[name] = columns[i]
	}
	return ds, nil
}

// N returns the number of observations.
func (ds *Dataset) N() int {
	return len(ds.IDs)
}

// ColumnNames returns the column names in load order, derived columns last.
func (ds *Dataset) ColumnNames() []string {
	return ds.order
}

// Column returns the values of a named column.
func (ds *Dataset) Column(name string) ([]float64, bool) {
	c, ok := ds.columns[name]
	return c, ok
}

// AddDerived appends a derived column. The values must be a pure function of
// existing columns; the original columns are never mutated.
func (ds *Dataset) AddDerived(name string, values []float64) error {
	if _, ok := ds.columns[name]; ok {
		return fmt.Errorf("dataset: derived column %s already exists", name)
	}
	if len(values) != len(ds.IDs) {
		return fmt.Errorf("dataset: derived column %s has %d values for %d observations", name, len(values), len(ds.IDs))
	}
	ds.order = append(ds.order, name)
	ds.columns[name] = values
	return nil
}

// RowIndex returns the row index of the observation with the given ID.
func (ds *Dataset) RowIndex(id int) (int, bool) {
	for i, v := range ds.IDs {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// completeRows returns the indices of observations with no missing value in
// any of the given columns (listwise exclusion).
func (ds *Dataset) completeRows(names []string) ([]int, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		c, ok := ds.columns[name]
		if !ok {
			return nil, fmt.Errorf("dataset: unknown column %s", name)
		}
		cols[i] = c
	}
	var rows []int
	for i := range ds.IDs {
		ok := true
		for _, c := range cols {
			if math.IsNaN(c[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows, nil
}
