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
// #include <stdlib.h>
import "C"

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNotSolved is returned by the result accessors when the last solve did
// not finish with a usable solution (or no solve has been run yet).
var ErrNotSolved = errors.New("solve unsuccessful; no solution to retrieve")

// VariableType is the solver-side type of a single decision variable.
type VariableType C.char

const (
	ContinuousVariable = VariableType(C.GRB_CONTINUOUS)
	BinaryVariable     = VariableType(C.GRB_BINARY)
	IntegerVariable    = VariableType(C.GRB_INTEGER)
)

// Resize reconfigures the problem to nrvar variables, nreq equality rows and
// nrineq inequality rows. All solver-side variable and constraint handles are
// dropped and re-created, and any previous solution is discarded.
//
// Between Resizes the shape is fixed: every Solve must supply data conformant
// with the current (nrvar, nreq, nrineq).
func (p *Problem) Resize(nrvar, nreq, nrineq int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.resize(nrvar, nreq, nrineq)
}

func (p *Problem) resize(nrvar, nreq, nrineq int) error {
	if nrvar < 1 || nreq < 0 || nrineq < 0 {
		return errors.Errorf("invalid problem shape (%d, %d, %d)", nrvar, nreq, nrineq)
	}

	// drop existing handles; indices are dense, starting at 0
	if p.nreq+p.nrineq > 0 {
		ind := iota32(p.nreq + p.nrineq)
		if err := p.check(C.GRBdelconstrs(p.model, C.int(len(ind)), &ind[0]), "removing constraints"); err != nil {
			return err
		}
	}

	if p.nrvar > 0 {
		ind := iota32(p.nrvar)
		if err := p.check(C.GRBdelvars(p.model, C.int(len(ind)), &ind[0]), "removing variables"); err != nil {
			return err
		}
	}

	if err := p.check(C.GRBupdatemodel(p.model), "updating model"); err != nil {
		return err
	}

	// fresh continuous variables; bounds and objective are provided per Solve
	if err := p.check(
		C.GRBaddvars(p.model, C.int(nrvar), 0, nil, nil, nil, nil, nil, nil, nil, nil),
		"adding variables",
	); err != nil {
		return err
	}

	if err := p.addRows(nreq, C.GRB_EQUAL, "adding equality constraints"); err != nil {
		return err
	}

	if err := p.addRows(nrineq, C.GRB_LESS_EQUAL, "adding inequality constraints"); err != nil {
		return err
	}

	// constraint coefficient changes need materialized handles
	if err := p.check(C.GRBupdatemodel(p.model), "updating model"); err != nil {
		return err
	}

	p.nrvar = nrvar
	p.nreq = nreq
	p.nrineq = nrineq

	p.x = make([]float64, nrvar)
	p.yeq = make([]float64, nreq)
	p.yineq = make([]float64, nrineq)

	p.status = StatusLoaded
	p.iter = 0

	return nil
}

// addRows appends n empty constraint rows with the given sense and a zero
// right-hand side.
func (p *Problem) addRows(n int, sense C.char, op string) error {
	if n == 0 {
		return nil
	}

	senses := make([]C.char, n)
	cbeg := make([]C.int, n)
	for i := range senses {
		senses[i] = sense
	}

	return p.check(
		C.GRBaddconstrs(p.model, C.int(n), 0, &cbeg[0], nil, nil, &senses[0], nil, nil),
		op,
	)
}

// optimize runs the solver on the staged model and records status, iteration
// count and, on success, the primal and dual vectors. It reports non-success
// as a *StatusError. Caller must hold the lock.
func (p *Problem) optimize() error {
	if err := p.check(C.GRBoptimize(p.model), "optimizing"); err != nil {
		return err
	}

	status, err := p.getIntAttr("Status")
	if err != nil {
		return err
	}
	p.status = Status(status)

	iter, err := p.getIntAttr("BarIterCount")
	if err != nil {
		return err
	}
	p.iter = iter

	if !p.status.Success() {
		return &StatusError{Status: p.status}
	}

	if err := p.getDblAttrArray("X", 0, p.x); err != nil {
		return err
	}
	if err := p.getDblAttrArray("Pi", 0, p.yeq); err != nil {
		return err
	}
	if err := p.getDblAttrArray("Pi", p.nreq, p.yineq); err != nil {
		return err
	}

	return nil
}

/* Shape and state accessors */

// NumVars returns the number of decision variables in the current shape.
func (p *Problem) NumVars() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.nrvar
}

// NumEq returns the number of equality rows in the current shape.
func (p *Problem) NumEq() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.nreq
}

// NumIneq returns the number of inequality rows in the current shape.
func (p *Problem) NumIneq() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.nrineq
}

// Status returns the solver status of the most recent solve, or StatusLoaded
// if none has been run since the last Resize.
func (p *Problem) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status
}

// Iterations returns the number of barrier iterations of the most recent
// solve.
func (p *Problem) Iterations() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.iter
}

// Success reports whether the most recent solve produced a usable solution.
func (p *Problem) Success() bool {
	return p.Status().Success()
}

// LogStatus writes the long-form description of the current solver status to
// the problem's logger.
func (p *Problem) LogStatus() {
	p.logger.Print(p.Status().Description())
}

/* Result accessors */

// Result returns a copy of the primal solution vector. It fails with
// ErrNotSolved when the last solve was not successful.
func (p *Problem) Result() (*mat.VecDense, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.resultVec(p.x)
}

// DualEq returns a copy of the dual values (shadow prices) of the equality
// constraints. It fails with ErrNotSolved when the last solve was not
// successful, and returns a nil vector when the problem has no equality rows.
func (p *Problem) DualEq() (*mat.VecDense, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.resultVec(p.yeq)
}

// DualIneq returns a copy of the dual values of the inequality constraints.
// It fails with ErrNotSolved when the last solve was not successful, and
// returns a nil vector when the problem has no inequality rows.
func (p *Problem) DualIneq() (*mat.VecDense, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.resultVec(p.yineq)
}

// Objective returns the objective value of the most recent solve. This value
// is only optimal if Status also reports StatusOptimal.
func (p *Problem) Objective() (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.status.Success() {
		return 0, errors.Wrapf(ErrNotSolved, "status %s", p.status)
	}

	return p.getDblAttr("ObjVal")
}

func (p *Problem) resultVec(buf []float64) (*mat.VecDense, error) {
	if !p.status.Success() {
		return nil, errors.Wrapf(ErrNotSolved, "status %s", p.status)
	}

	if len(buf) == 0 {
		return nil, nil
	}

	out := make([]float64, len(buf))
	copy(out, buf)

	return mat.NewVecDense(len(out), out), nil
}

// SetVariableType changes the solver-side type of the variable at the given
// index. Variables start out continuous; note that dual values are not
// available once a model contains integer or binary variables.
func (p *Problem) SetVariableType(index int, vt VariableType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if index < 0 || index >= p.nrvar {
		return errors.Errorf("variable index %d out of range [0, %d)", index, p.nrvar)
	}

	return p.setCharAttrElement("VType", index, C.char(vt))
}

// iota32 returns [0, 1, ..., n-1] as C ints.
func iota32(n int) []C.int {
	ind := make([]C.int, n)
	for i := range ind {
		ind[i] = C.int(i)
	}

	return ind
}
