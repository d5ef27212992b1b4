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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	delta = 0.000001 // acceptable numerical deviation for test results
)

// parabolicQP is min (x1-1)² + (x2-2)² expressed as ½·xᵀQx + cᵀx (up to a
// constant): Q = 2I, c = (-2, -4). Unconstrained optimum (1, 2).
func parabolicQP() (*mat.Dense, *mat.VecDense) {
	return mat.NewDense(2, 2, []float64{2, 0, 0, 2}),
		mat.NewVecDense(2, []float64{-2, -4})
}

func wideBounds(n int) (*mat.VecDense, *mat.VecDense) {
	xl := mat.NewVecDense(n, nil)
	xu := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		xl.SetVec(i, -10)
		xu.SetVec(i, 10)
	}

	return xl, xu
}

func TestDenseEqualityConstrained(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aeq := mat.NewDense(1, 2, []float64{1, 1})
	beq := mat.NewVecDense(1, []float64{2})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, aeq, beq, nil, nil, xl, xu))

	assert.Equal(t, StatusOptimal, prob.Status())
	assert.True(t, prob.Success())

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x.AtVec(0), delta)
	assert.InDelta(t, 1.5, x.AtVec(1), delta)

	// shadow price of the equality: d(obj)/d(beq) at beq=2 is -1
	yeq, err := prob.DualEq()
	require.NoError(t, err)
	assert.InDelta(t, -1.0, yeq.AtVec(0), delta)

	yineq, err := prob.DualIneq()
	require.NoError(t, err)
	assert.Nil(t, yineq)

	// ½·xᵀQx + cᵀx at (0.5, 1.5)
	obj, err := prob.Objective()
	require.NoError(t, err)
	assert.InDelta(t, -4.5, obj, delta)
}

func TestDenseInequalityConstrained(t *testing.T) {
	prob, err := NewDense(2, 0, 1)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aineq := mat.NewDense(1, 2, []float64{1, 1})
	bineq := mat.NewVecDense(1, []float64{1})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, nil, nil, aineq, bineq, xl, xu))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, x.AtVec(0), delta)
	assert.InDelta(t, 1.0, x.AtVec(1), delta)

	yineq, err := prob.DualIneq()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, yineq.AtVec(0), delta)
}

func TestDenseBoundsOnly(t *testing.T) {
	prob, err := NewDense(1, 0, 0)
	require.NoError(t, err)
	defer prob.Close()

	// min (x-3)² with x capped at 2
	q := mat.NewDense(1, 1, []float64{2})
	c := mat.NewVecDense(1, []float64{-6})
	xl := mat.NewVecDense(1, []float64{0})
	xu := mat.NewVecDense(1, []float64{2})

	require.NoError(t, prob.Solve(q, c, nil, nil, nil, nil, xl, xu))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x.AtVec(0), delta)
}

func TestDenseResolveSameShape(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aeq := mat.NewDense(1, 2, []float64{1, 1})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, aeq, mat.NewVecDense(1, []float64{2}), nil, nil, xl, xu))

	// same structure, new right-hand side
	require.NoError(t, prob.Solve(q, c, aeq, mat.NewVecDense(1, []float64{4}), nil, nil, xl, xu))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, x.AtVec(0), delta)
	assert.InDelta(t, 2.5, x.AtVec(1), delta)
}

func TestDenseInfeasible(t *testing.T) {
	prob, err := NewDense(1, 0, 1)
	require.NoError(t, err)
	defer prob.Close()

	// definitive status instead of InfeasibleOrUnbounded
	require.NoError(t, prob.SetDualReductions(false))

	// x ≤ -1 with x ≥ 0
	q := mat.NewDense(1, 1, []float64{2})
	c := mat.NewVecDense(1, []float64{0})
	aineq := mat.NewDense(1, 1, []float64{1})
	bineq := mat.NewVecDense(1, []float64{-1})
	xl := mat.NewVecDense(1, []float64{0})
	xu := mat.NewVecDense(1, []float64{10})

	err = prob.Solve(q, c, nil, nil, aineq, bineq, xl, xu)
	require.Error(t, err)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StatusInfeasible, serr.Status)
	assert.False(t, prob.Success())

	_, err = prob.Result()
	assert.ErrorIs(t, err, ErrNotSolved)
	_, err = prob.DualIneq()
	assert.ErrorIs(t, err, ErrNotSolved)
}

func TestResultBeforeSolve(t *testing.T) {
	prob, err := NewDense(2, 0, 0)
	require.NoError(t, err)
	defer prob.Close()

	assert.Equal(t, StatusLoaded, prob.Status())

	_, err = prob.Result()
	assert.ErrorIs(t, err, ErrNotSolved)
}

func TestDimensionChecks(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	xl, xu := wideBounds(2)

	// Q of the wrong shape
	badQ := mat.NewDense(1, 2, []float64{1, 1})
	assert.Error(t, prob.Solve(badQ, c, mat.NewDense(1, 2, []float64{1, 1}), mat.NewVecDense(1, []float64{2}), nil, nil, xl, xu))

	// missing equality system for a shape that has one
	assert.Error(t, prob.Solve(q, c, nil, nil, nil, nil, xl, xu))

	// right-hand side length mismatch
	assert.Error(t, prob.Solve(q, c, mat.NewDense(1, 2, []float64{1, 1}), mat.NewVecDense(2, nil), nil, nil, xl, xu))
}

func TestResize(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aeq := mat.NewDense(1, 2, []float64{1, 1})
	beq := mat.NewVecDense(1, []float64{2})
	xl, xu := wideBounds(2)

	require.NoError(t, prob.Solve(q, c, aeq, beq, nil, nil, xl, xu))
	require.True(t, prob.Success())

	require.NoError(t, prob.Resize(1, 0, 0))
	assert.Equal(t, 1, prob.NumVars())
	assert.Equal(t, 0, prob.NumEq())

	// resizing discards the previous solution
	_, err = prob.Result()
	assert.ErrorIs(t, err, ErrNotSolved)

	q1 := mat.NewDense(1, 1, []float64{2})
	c1 := mat.NewVecDense(1, []float64{-6})
	require.NoError(t, prob.Solve(q1, c1, nil, nil, nil, nil, mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{2})))

	x, err := prob.Result()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x.AtVec(0), delta)
}

func TestSolveContext(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aeq := mat.NewDense(1, 2, []float64{1, 1})
	beq := mat.NewVecDense(1, []float64{2})
	xl, xu := wideBounds(2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, prob.SolveContext(ctx, q, c, aeq, beq, nil, nil, xl, xu))
	assert.True(t, prob.Success())
}

func TestSolveContextCancelled(t *testing.T) {
	prob, err := NewDense(2, 1, 0)
	require.NoError(t, err)
	defer prob.Close()

	q, c := parabolicQP()
	aeq := mat.NewDense(1, 2, []float64{1, 1})
	beq := mat.NewVecDense(1, []float64{2})
	xl, xu := wideBounds(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a solve this small may still finish before the termination request is
	// seen; both outcomes are acceptable, anything else is a bug
	err = prob.SolveContext(ctx, q, c, aeq, beq, nil, nil, xl, xu)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestClose(t *testing.T) {
	prob, err := NewDense(2, 0, 0)
	require.NoError(t, err)

	require.NoError(t, prob.Close())
	require.NoError(t, prob.Close()) // idempotent

	q, c := parabolicQP()
	xl, xu := wideBounds(2)
	assert.ErrorIs(t, prob.Solve(q, c, nil, nil, nil, nil, xl, xu), ErrClosed)
	assert.ErrorIs(t, prob.Resize(1, 0, 0), ErrClosed)
}

func TestLogStatus(t *testing.T) {
	prob, err := NewDense(1, 0, 0, WithLogger(&recordingLogger{}))
	require.NoError(t, err)
	defer prob.Close()

	rec := prob.logger.(*recordingLogger)
	prob.LogStatus()
	require.Len(t, rec.lines, 1)
	assert.Equal(t, StatusLoaded.Description(), rec.lines[0])
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Print(v ...interface{}) {
	for _, line := range v {
		r.lines = append(r.lines, line.(string))
	}
}
