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

/*

Package gurobi provides Go bindings for the Gurobi Optimizer's C API,
specialized for quadratic programs of the form

	minimize   ½·xᵀQx + cᵀx
	subject to Aeq·x  = beq
	           Aineq·x ≤ bineq
	           xl ≤ x ≤ xu

The problem shape (number of variables, equality rows and inequality rows) is
fixed when a problem is created and can only change through Resize; within a
shape, Solve may be called repeatedly with fresh data, which is the intended
usage pattern for receding-horizon controllers and other callers that solve
the same structure over and over.

A dense problem is solved like this:

	package main

	import (
		"fmt"

		"github.com/optkit/gurobi"
		"gonum.org/v1/gonum/mat"
	)

	func main() {
		// minimize (x1-1)² + (x2-2)², subject to x1 + x2 = 2
		prob, _ := gurobi.NewDense(2, 1, 0)
		defer prob.Close()

		Q := mat.NewDense(2, 2, []float64{2, 0, 0, 2})
		c := mat.NewVecDense(2, []float64{-2, -4})
		aeq := mat.NewDense(1, 2, []float64{1, 1})
		beq := mat.NewVecDense(1, []float64{2})
		xl := mat.NewVecDense(2, []float64{-10, -10})
		xu := mat.NewVecDense(2, []float64{10, 10})

		if err := prob.Solve(Q, c, aeq, beq, nil, nil, xl, xu); err != nil {
			// you should check for gurobi.StatusError to distinguish
			// "the solver says no" from API failures
			panic(err)
		}

		x, _ := prob.Result()
		fmt.Printf("x = %v\n", mat.Formatted(x.T()))
	}

NewSparse behaves identically but takes its coefficient data in compressed
sparse column form, only touching the nonzero entries of the solver model.

Building requires a Gurobi installation and license; the cgo directives below
assume the stock installation paths and can be overridden with CGO_CFLAGS and
CGO_LDFLAGS.

*/
package gurobi

// #cgo linux CFLAGS: -I/opt/gurobi1100/linux64/include
// #cgo linux LDFLAGS: -L/opt/gurobi1100/linux64/lib -lgurobi110
// #cgo darwin CFLAGS: -I/Library/gurobi1100/macos_universal2/include
// #cgo darwin LDFLAGS: -L/Library/gurobi1100/macos_universal2/lib -lgurobi110
// #include <gurobi_c.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern int messageCallback(GRBmodel *model, void *cbdata, int where, void *usrdata);

static int attach_message_callback(GRBmodel *m, void *usrdata) {
	return GRBsetcallbackfunc(m, messageCallback, usrdata);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrClosed is returned by operations on a problem whose Close method has
// already been called.
var ErrClosed = errors.New("problem has been closed")

// Problem is the part shared by the dense and sparse specializations: the
// solver environment and model, the current shape, and the state of the last
// solve. It is not usable on its own; create a Dense or a Sparse.
//
// A Problem is safe for concurrent use, though the underlying solver
// serializes all work on the model anyway.
type Problem struct {
	mu    sync.RWMutex
	env   *C.GRBenv
	model *C.GRBmodel
	cbref unsafe.Pointer

	nrvar  int
	nreq   int
	nrineq int

	status Status
	iter   int

	// extraction buffers, sized by Resize
	x     []float64
	yeq   []float64
	yineq []float64

	logger Logger
	closed bool
}

func (p *Problem) init(name string, nrvar, nreq, nrineq int, opts []Option) error {
	var env *C.GRBenv
	if ret := C.GRBemptyenv(&env); ret != 0 {
		return errors.Errorf("creating environment (code %d)", int(ret))
	}

	p.env = env
	p.logger = noopLogger{}
	p.status = StatusLoaded

	// route solver output through our message callback instead of the console
	if err := p.setEnvIntParam("LogToConsole", 0); err != nil {
		C.GRBfreeenv(env)
		return err
	}

	if ret := C.GRBstartenv(env); ret != 0 {
		err := p.check(ret, "starting environment")
		C.GRBfreeenv(env)
		return err
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	if ret := C.GRBnewmodel(env, &p.model, cName, 0, nil, nil, nil, nil, nil); ret != 0 {
		err := p.check(ret, "creating model")
		C.GRBfreeenv(env)
		return err
	}

	p.attachMessageCallback()

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.free()
			return errors.Wrap(err, "applying problem option")
		}
	}

	if err := p.resize(nrvar, nreq, nrineq); err != nil {
		p.free()
		return err
	}

	return nil
}

// attachMessageCallback registers the exported callback that routes the
// solver's log lines into the problem's logger.
func (p *Problem) attachMessageCallback() {
	p.cbref = saveRef(p)
	C.attach_message_callback(p.model, p.cbref)
}

// free releases the C-side model and environment. Idempotent.
func (p *Problem) free() {
	if p.closed {
		return
	}

	p.closed = true

	C.GRBfreemodel(p.model)
	C.GRBfreeenv(p.env)

	if p.cbref != nil {
		dropRef(p.cbref)
		p.cbref = nil
	}
}

// Close releases the solver model, environment and license token held by this
// problem. The problem must not be used afterwards. Calling Close more than
// once is a no-op.
//
// Problems are also released by a finalizer on garbage collection, but a
// license token can be scarce; callers should Close explicitly.
func (p *Problem) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free()

	return nil
}

/* C call plumbing */

// check converts a nonzero Gurobi return code into an error carrying the
// solver's own message text.
func (p *Problem) check(ret C.int, op string) error {
	if ret == 0 {
		return nil
	}

	msg := C.GoString(C.GRBgeterrormsg(p.env))

	return errors.Errorf("%s: %s (code %d)", op, msg, int(ret))
}

func (p *Problem) getIntAttr(name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var v C.int
	if err := p.check(C.GRBgetintattr(p.model, cName, &v), "getting attribute "+name); err != nil {
		return 0, err
	}

	return int(v), nil
}

func (p *Problem) getDblAttr(name string) (float64, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var v C.double
	if err := p.check(C.GRBgetdblattr(p.model, cName, &v), "getting attribute "+name); err != nil {
		return 0, err
	}

	return float64(v), nil
}

func (p *Problem) setDblAttrArray(name string, first int, vals []C.double) error {
	if len(vals) == 0 {
		return nil
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return p.check(
		C.GRBsetdblattrarray(p.model, cName, C.int(first), C.int(len(vals)), &vals[0]),
		"setting attribute "+name,
	)
}

func (p *Problem) getDblAttrArray(name string, first int, out []float64) error {
	if len(out) == 0 {
		return nil
	}

	buf := make([]C.double, len(out))

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	if err := p.check(
		C.GRBgetdblattrarray(p.model, cName, C.int(first), C.int(len(buf)), &buf[0]),
		"getting attribute "+name,
	); err != nil {
		return err
	}

	for i, v := range buf {
		out[i] = float64(v)
	}

	return nil
}

func (p *Problem) setCharAttrElement(name string, index int, val C.char) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return p.check(
		C.GRBsetcharattrelement(p.model, cName, C.int(index), val),
		"setting attribute "+name,
	)
}

// changeCoeffs stages a batch of (row, col, value) triplets into the model's
// constraint matrix.
func (p *Problem) changeCoeffs(cind, vind []C.int, vals []C.double) error {
	if len(vals) == 0 {
		return nil
	}

	return p.check(
		C.GRBchgcoeffs(p.model, C.int(len(vals)), &cind[0], &vind[0], &vals[0]),
		"changing constraint coefficients",
	)
}

