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

	"github.com/james-bowman/sparse"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Sparse is a QP problem whose coefficient data is supplied in compressed
// sparse column form. Only nonzero entries are staged into the solver; stale
// coefficients from a previous Solve with a different sparsity pattern are
// zeroed first.
type Sparse struct {
	Problem
}

// NewSparse creates a sparse QP problem with nrvar variables, nreq equality
// rows and nrineq inequality rows.
func NewSparse(nrvar, nreq, nrineq int, opts ...Option) (*Sparse, error) {
	s := new(Sparse)
	if err := s.init("sparse QP", nrvar, nreq, nrineq, opts); err != nil {
		return nil, err
	}

	// backstop for callers that never Close
	runtime.SetFinalizer(s, finalizeSparse)

	return s, nil
}

func finalizeSparse(s *Sparse) {
	s.mu.Lock()
	s.free()
	s.mu.Unlock()
}

// Solve uploads the problem data and runs the solver. It has the same
// contract as Dense.Solve; only the input representation differs. Bounds stay
// dense, mirroring the usual case of every variable being boxed.
func (s *Sparse) Solve(q *sparse.CSC, c *sparse.Vector,
	aeq *sparse.CSC, beq *sparse.Vector,
	aineq *sparse.CSC, bineq *sparse.Vector,
	xl, xu *mat.VecDense,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.stage(q, c, aeq, beq, aineq, bineq, xl, xu); err != nil {
		return err
	}

	return s.optimize()
}

// SolveContext behaves like Solve, but aborts the solver when ctx is
// cancelled or times out; see Dense.SolveContext.
func (s *Sparse) SolveContext(ctx context.Context, q *sparse.CSC, c *sparse.Vector,
	aeq *sparse.CSC, beq *sparse.Vector,
	aineq *sparse.CSC, bineq *sparse.Vector,
	xl, xu *mat.VecDense,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.stage(q, c, aeq, beq, aineq, bineq, xl, xu); err != nil {
		return err
	}

	return s.solveWithContext(ctx, s.optimize)
}

func (s *Sparse) stage(q *sparse.CSC, c *sparse.Vector,
	aeq *sparse.CSC, beq *sparse.Vector,
	aineq *sparse.CSC, bineq *sparse.Vector,
	xl, xu *mat.VecDense,
) error {
	n := s.nrvar

	if err := checkSparseDims("Q", q, n, n); err != nil {
		return err
	}
	if err := checkSparseVecLen("C", c, n); err != nil {
		return err
	}
	if err := checkVecLen("XL", xl, n); err != nil {
		return err
	}
	if err := checkVecLen("XU", xu, n); err != nil {
		return err
	}
	if err := s.checkSparseSystem("Aeq", "Beq", aeq, beq, s.nreq); err != nil {
		return err
	}
	if err := s.checkSparseSystem("Aineq", "Bineq", aineq, bineq, s.nrineq); err != nil {
		return err
	}

	// quadratic objective from the nonzeros only, with the ½ factor folded in
	if err := s.check(C.GRBdelq(s.model), "clearing quadratic objective"); err != nil {
		return err
	}

	var qrow, qcol []C.int
	var qval []C.double
	q.DoNonZero(func(i, j int, v float64) {
		qrow = append(qrow, C.int(i))
		qcol = append(qcol, C.int(j))
		qval = append(qval, C.double(0.5*v))
	})
	if len(qval) > 0 {
		if err := s.check(
			C.GRBaddqpterms(s.model, C.int(len(qval)), &qrow[0], &qcol[0], &qval[0]),
			"setting quadratic objective",
		); err != nil {
			return err
		}
	}

	// the linear objective is an attribute array, so spreading the nonzeros
	// over a zeroed buffer also clears coefficients from earlier solves
	obj := make([]C.double, n)
	c.DoNonZero(func(i, _ int, v float64) {
		obj[i] = C.double(v)
	})
	if err := s.setDblAttrArray("Obj", 0, obj); err != nil {
		return err
	}

	if err := s.setDblAttrArray("LB", 0, cDoubleVec(xl)); err != nil {
		return err
	}
	if err := s.setDblAttrArray("UB", 0, cDoubleVec(xu)); err != nil {
		return err
	}

	if err := s.stageSystem(0, s.nreq, aeq, beq); err != nil {
		return err
	}

	return s.stageSystem(s.nreq, s.nrineq, aineq, bineq)
}

// stageSystem uploads one sparse constraint block. Every coefficient of the
// block is zeroed first so that a pattern sparser than the previous solve's
// cannot leave stale entries behind, then the nonzeros are set.
func (s *Sparse) stageSystem(offset, rows int, a *sparse.CSC, b *sparse.Vector) error {
	if rows == 0 {
		return nil
	}

	n := s.nrvar
	cind := make([]C.int, 0, rows*n)
	vind := make([]C.int, 0, rows*n)
	zeros := make([]C.double, rows*n)
	for j := 0; j < n; j++ {
		for i := 0; i < rows; i++ {
			cind = append(cind, C.int(offset+i))
			vind = append(vind, C.int(j))
		}
	}
	if err := s.changeCoeffs(cind, vind, zeros); err != nil {
		return err
	}

	var aind, avind []C.int
	var avals []C.double
	a.DoNonZero(func(i, j int, v float64) {
		aind = append(aind, C.int(offset+i))
		avind = append(avind, C.int(j))
		avals = append(avals, C.double(v))
	})
	if err := s.changeCoeffs(aind, avind, avals); err != nil {
		return err
	}

	rhs := make([]C.double, rows)
	b.DoNonZero(func(i, _ int, v float64) {
		rhs[i] = C.double(v)
	})

	return s.setDblAttrArray("RHS", offset, rhs)
}

func (p *Problem) checkSparseSystem(aName, bName string, a *sparse.CSC, b *sparse.Vector, rows int) error {
	if rows == 0 {
		// nil (or empty) systems are fine when the shape has no such rows
		return nil
	}

	if err := checkSparseDims(aName, a, rows, p.nrvar); err != nil {
		return err
	}

	return checkSparseVecLen(bName, b, rows)
}

func checkSparseDims(name string, m *sparse.CSC, rows, cols int) error {
	if m == nil {
		return errors.Errorf("%s is nil, want %dx%d", name, rows, cols)
	}

	r, c := m.Dims()
	if r != rows || c != cols {
		return errors.Errorf("%s is %dx%d, want %dx%d", name, r, c, rows, cols)
	}

	return nil
}

func checkSparseVecLen(name string, v *sparse.Vector, n int) error {
	if v == nil {
		return errors.Errorf("%s is nil, want length %d", name, n)
	}

	if v.Len() != n {
		return errors.Errorf("%s has length %d, want %d", name, v.Len(), n)
	}

	return nil
}
