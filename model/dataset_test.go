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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDatasetValidation(t *testing.T) {
	_, err := NewDataset([]int{1, 2, 2}, []string{"x"}, [][]float64{{1, 2, 3}})
	var de *DataError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 2, de.ID)
	require.Equal(t, "ID", de.Column)

	_, err = NewDataset([]int{1, 2}, []string{"x"}, [][]float64{{1, 2, 3}})
	require.Error(t, err)

	_, err = NewDataset([]int{1, 2}, []string{"x", "x"}, [][]float64{{1, 2}, {3, 4}})
	require.Error(t, err)
}

func TestDatasetAccessors(t *testing.T) {
	ds, err := NewDataset([]int{5, 9, 12},
		[]string{"x", "y"},
		[][]float64{{1, 2, 3}, {4, math.NaN(), 6}})
	require.NoError(t, err)
	require.Equal(t, 3, ds.N())
	require.Equal(t, []string{"x", "y"}, ds.ColumnNames())

	row, ok := ds.RowIndex(9)
	require.True(t, ok)
	require.Equal(t, 1, row)
	_, ok = ds.RowIndex(4)
	require.False(t, ok)

	_, ok = ds.Column("z")
	require.False(t, ok)

	rows, err := ds.completeRows([]string{"x", "y"})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, rows)
	_, err = ds.completeRows([]string{"z"})
	require.Error(t, err)

	require.NoError(t, ds.AddDerived("z", []float64{7, 8, 9}))
	require.Error(t, ds.AddDerived("z", []float64{7, 8, 9}))
	require.Error(t, ds.AddDerived("w", []float64{7, 8}))
	require.Equal(t, []string{"x", "y", "z"}, ds.ColumnNames())
}

func TestDataErrorMessage(t *testing.T) {
	err := &DataError{ID: 17, Column: "SurvTime", Reason: "non-positive value"}
	require.Equal(t, "data validation: observation 17: SurvTime: non-positive value", err.Error())
}
