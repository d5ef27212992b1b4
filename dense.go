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

// #cgo linux CFLAGS: -I/opt/gurobi1100/linux64/include
// #cgo linux LDFLAGS: -L/opt/gurobi1100/linux64/lib -lgurobi110
// #cgo darwin CFLAGS: -I/Library/gurobi1100/macos_universal2/include
// #cgo darwin LDFLAGS: -L/Library/gurobi1100/macos_universal2/lib -lgurobi110
// #include <gurobi_c.h>
import "C"

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dense is a QP problem whose coefficient data is supplied as dense gonum
// matrices. Every entry of the objective and constraint matrices is uploaded
// to the solver on each Solve, zeros included.
type Dense struct {
	Problem
}

// NewDense creates a dense QP problem with nrvar variables, nreq equality
// rows and nrineq inequality rows.
func NewDense(nrvar, nreq, nrineq int, opts ...Option) (*Dense, error) {
	d := new(Dense)
	if err := d.init("dense QP", nrvar, nreq, nrineq, opts); err != nil {
		return nil, err
	}

	// backstop for callers that never Close
	runtime.SetFinalizer(d, finalizeDense)

	return d, nil
}

func finalizeDense(d *Dense) {
	d.mu.Lock()
	d.free()
	d.mu.Unlock()
}

// Solve uploads the problem data and runs the solver.
//
// The objective minimized is ½·xᵀQx + cᵀx; q must be nrvar×nrvar, aeq
// nreq×nrvar with beq of length nreq, aineq nrineq×nrvar with bineq of length
// nrineq (rows are read as Aineq·x ≤ bineq), and xl, xu of length nrvar.
// Systems with zero rows may be passed as nil.
//
// A non-successful terminal status is reported as a *StatusError; Status,
// Iterations and LogStatus stay usable afterwards. On success the solution is
// available from Result, DualEq and DualIneq.
func (d *Dense) Solve(q *mat.Dense, c *mat.VecDense,
	aeq *mat.Dense, beq *mat.VecDense,
	aineq *mat.Dense, bineq *mat.VecDense,
	xl, xu *mat.VecDense,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if err := d.stage(q, c, aeq, beq, aineq, bineq, xl, xu); err != nil {
		return err
	}

	return d.optimize()
}

// SolveContext behaves like Solve, but aborts the solver when ctx is
// cancelled or times out. An abort surfaces as the context's error; if the
// solver had already found a solution when it was told to stop, the status
// will be StatusSuboptimal and the partial results remain retrievable.
func (d *Dense) SolveContext(ctx context.Context, q *mat.Dense, c *mat.VecDense,
	aeq *mat.Dense, beq *mat.VecDense,
	aineq *mat.Dense, bineq *mat.VecDense,
	xl, xu *mat.VecDense,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if err := d.stage(q, c, aeq, beq, aineq, bineq, xl, xu); err != nil {
		return err
	}

	return d.solveWithContext(ctx, d.optimize)
}

// stage uploads objective, bounds and both constraint systems. Caller must
// hold the lock.
func (d *Dense) stage(q *mat.Dense, c *mat.VecDense,
	aeq *mat.Dense, beq *mat.VecDense,
	aineq *mat.Dense, bineq *mat.VecDense,
	xl, xu *mat.VecDense,
) error {
	n := d.nrvar

	if err := checkMatrixDims("Q", q, n, n); err != nil {
		return err
	}
	for _, v := range []struct {
		name string
		vec  *mat.VecDense
	}{{"C", c}, {"XL", xl}, {"XU", xu}} {
		if err := checkVecLen(v.name, v.vec, n); err != nil {
			return err
		}
	}
	if err := d.checkSystem("Aeq", "Beq", aeq, beq, d.nreq); err != nil {
		return err
	}
	if err := d.checkSystem("Aineq", "Bineq", aineq, bineq, d.nrineq); err != nil {
		return err
	}

	// quadratic objective: the solver minimizes the terms exactly as given,
	// so the ½ factor is folded into the coefficients here
	if err := d.check(C.GRBdelq(d.model), "clearing quadratic objective"); err != nil {
		return err
	}

	qrow := make([]C.int, 0, n*n)
	qcol := make([]C.int, 0, n*n)
	qval := make([]C.double, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			qrow = append(qrow, C.int(i))
			qcol = append(qcol, C.int(j))
			qval = append(qval, C.double(0.5*q.At(i, j)))
		}
	}
	if err := d.check(
		C.GRBaddqpterms(d.model, C.int(len(qval)), &qrow[0], &qcol[0], &qval[0]),
		"setting quadratic objective",
	); err != nil {
		return err
	}

	if err := d.setDblAttrArray("Obj", 0, cDoubleVec(c)); err != nil {
		return err
	}
	if err := d.setDblAttrArray("LB", 0, cDoubleVec(xl)); err != nil {
		return err
	}
	if err := d.setDblAttrArray("UB", 0, cDoubleVec(xu)); err != nil {
		return err
	}

	if err := d.stageSystem(0, d.nreq, aeq, beq); err != nil {
		return err
	}

	return d.stageSystem(d.nreq, d.nrineq, aineq, bineq)
}

// stageSystem uploads one constraint block: the full coefficient matrix,
// column by column, and the right-hand side at the block's row offset.
func (d *Dense) stageSystem(offset, rows int, a *mat.Dense, b *mat.VecDense) error {
	if rows == 0 {
		return nil
	}

	n := d.nrvar
	cind := make([]C.int, 0, rows*n)
	vind := make([]C.int, 0, rows*n)
	vals := make([]C.double, 0, rows*n)
	for j := 0; j < n; j++ {
		for i := 0; i < rows; i++ {
			cind = append(cind, C.int(offset+i))
			vind = append(vind, C.int(j))
			vals = append(vals, C.double(a.At(i, j)))
		}
	}

	if err := d.changeCoeffs(cind, vind, vals); err != nil {
		return err
	}

	return d.setDblAttrArray("RHS", offset, cDoubleVec(b))
}

func (p *Problem) checkSystem(aName, bName string, a *mat.Dense, b *mat.VecDense, rows int) error {
	if rows == 0 {
		// nil (or empty) systems are fine when the shape has no such rows
		return nil
	}

	if err := checkMatrixDims(aName, a, rows, p.nrvar); err != nil {
		return err
	}

	return checkVecLen(bName, b, rows)
}

func checkMatrixDims(name string, m *mat.Dense, rows, cols int) error {
	if m == nil {
		return errors.Errorf("%s is nil, want %dx%d", name, rows, cols)
	}

	r, c := m.Dims()
	if r != rows || c != cols {
		return errors.Errorf("%s is %dx%d, want %dx%d", name, r, c, rows, cols)
	}

	return nil
}

func checkVecLen(name string, v *mat.VecDense, n int) error {
	if v == nil {
		return errors.Errorf("%s is nil, want length %d", name, n)
	}

	if v.Len() != n {
		return errors.Errorf("%s has length %d, want %d", name, v.Len(), n)
	}

	return nil
}

func cDoubleVec(v *mat.VecDense) []C.double {
	if v == nil {
		return nil
	}

	out := make([]C.double, v.Len())
	for i := range out {
		out[i] = C.double(v.AtVec(i))
	}

	return out
}
