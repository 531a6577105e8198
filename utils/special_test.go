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

package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStudentTPValue(t *testing.T) {
	require.InDelta(t, 0.07338803, StudentTPValue(2.0, 10), 1e-6)
	require.InDelta(t, 0.36321747, StudentTPValue(1.0, 5), 1e-6)
	// two-sided, so the sign of the statistic does not matter
	require.InDelta(t, StudentTPValue(2.0, 10), StudentTPValue(-2.0, 10), 1e-12)
	require.InDelta(t, 1.0, StudentTPValue(0.0, 10), 1e-12)
}

func TestStudentTQuantile(t *testing.T) {
	require.InDelta(t, 2.00574595, StudentTQuantile(0.975, 53), 1e-5)
	require.InDelta(t, 1.81246110, StudentTQuantile(0.95, 10), 1e-5)
	// the quantile inverts the two-sided p-value
	q := StudentTQuantile(0.975, 20)
	require.InDelta(t, 0.05, StudentTPValue(q, 20), 1e-6)
}

func TestFSurvival(t *testing.T) {
	require.InDelta(t, 0.63546567, FSurvival(0.227552, 1, 49), 1e-6)
	require.InDelta(t, 0.02207700, FSurvival(4.0, 3, 20), 1e-6)
	require.InDelta(t, 1.0, FSurvival(0.0, 2, 30), 1e-12)
	// an F statistic with one numerator df is a squared t statistic
	require.InDelta(t, StudentTPValue(2.0, 49), FSurvival(4.0, 1, 49), 1e-9)
}
