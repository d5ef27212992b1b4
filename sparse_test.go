/*
Copyright © 2019-2025 the optkit authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package gurobi

import (
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sparseParabolicQP is the sparse rendition of parabolicQP: Q = 2I,
// c = (-2, -4).
func sparseParabolicQP() (*sparse.CSC, *sparse.Vector) {
	q := sparse.NewDOK(2, 2)
	q.Set(0, 0, 2)
	q.Set(1, 1, 2)

	return q.ToCSC(), sparse.NewVector(2, []int{0, 1}, []float64{-2, -4})
}

func TestSparseEqualityConstrained(t *testing.T) {
	prob, err := NewSparse(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := sparseParabolicQP()
	aeq := sparse.NewDOK(1, 2)
	aeq.Set(0, 0, 1)
	aeq.Set(0, 1, 1)
	beq := sparse.NewVector(1, []int{0}, []float64{2})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, aeq.ToCSC(), beq, nil, nil, xl, xu))

	assert.Equal(t, StatusOptimal, prob.Status())

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x.AtVec(0), delta)
	assert.InDelta(t, 1.5, x.AtVec(1), delta)

	yeq, err := prob.DualEq()
	require.NoError(t, err)
	assert.InDelta(t, -1.0, yeq.AtVec(0), delta)
}

func TestSparseInequalityConstrained(t *testing.T) {
	prob, err := NewSparse(2, 0, 1)
	require.NoError(t, err)
	defer prob.Close()

	q, c := sparseParabolicQP()
	aineq := sparse.NewDOK(1, 2)
	aineq.Set(0, 0, 1)
	aineq.Set(0, 1, 1)
	bineq := sparse.NewVector(1, []int{0}, []float64{1})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, nil, nil, aineq.ToCSC(), bineq, xl, xu))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, x.AtVec(0), delta)
	assert.InDelta(t, 1.0, x.AtVec(1), delta)

	yineq, err := prob.DualIneq()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, yineq.AtVec(0), delta)
}

// A re-solve with a sparser pattern must not inherit coefficients or
// right-hand sides from the previous solve.
func TestSparseResolveChangedPattern(t *testing.T) {
	prob, err := NewSparse(2, 0, 1)
	require.NoError(t, err)
	defer prob.Close()

	q, c := sparseParabolicQP()
	xl, xu := wideBounds(2)

	// x2 ≤ 0.5
	first := sparse.NewDOK(1, 2)
	first.Set(0, 1, 1)
	require.NoError(t, prob.Solve(q, c, nil, nil, first.ToCSC(),
		sparse.NewVector(1, []int{0}, []float64{0.5}), xl, xu))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x.AtVec(0), delta)
	assert.InDelta(t, 0.5, x.AtVec(1), delta)

	// now x1 ≤ 0.5; the old x2 coefficient must be gone
	second := sparse.NewDOK(1, 2)
	second.Set(0, 0, 1)
	require.NoError(t, prob.Solve(q, c, nil, nil, second.ToCSC(),
		sparse.NewVector(1, []int{0}, []float64{0.5}), xl, xu))

	x, err = prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x.AtVec(0), delta)
	assert.InDelta(t, 2.0, x.AtVec(1), delta)
}

func TestSparseDimensionChecks(t *testing.T) {
	prob, err := NewSparse(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := sparseParabolicQP()
	xl, xu := wideBounds(2)

	// missing equality system for a shape that has one
	assert.Error(t, prob.Solve(q, c, nil, nil, nil, nil, xl, xu))

	// equality matrix of the wrong shape
	bad := sparse.NewDOK(2, 2)
	bad.Set(0, 0, 1)
	assert.Error(t, prob.Solve(q, c, bad.ToCSC(),
		sparse.NewVector(1, []int{0}, []float64{2}), nil, nil, xl, xu))
}
