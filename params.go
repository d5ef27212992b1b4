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
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Solver tolerances must stay within the range the solver accepts.
const (
	minTolerance = 1e-9
	maxTolerance = 1e-2
)

// WarmStart selects the algorithm used when reoptimizing a model that
// already holds a solution, via the solver's MultiObjMethod parameter.
type WarmStart int

const (
	WarmStartDefault       WarmStart = -1
	WarmStartPrimalSimplex WarmStart = 0
	WarmStartDualSimplex   WarmStart = 1
	WarmStartBarrier       WarmStart = 2
)

/* Low-level parameter plumbing */

// setEnvIntParam sets a parameter on the bare environment, before the model
// exists. After model creation all parameter access goes through the model's
// own environment copy.
func (p *Problem) setEnvIntParam(name string, v int) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return p.check(C.GRBsetintparam(p.env, cName, C.int(v)), "setting parameter "+name)
}

func (p *Problem) setIntParam(name string, v int) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return p.check(C.GRBsetintparam(C.GRBgetenv(p.model), cName, C.int(v)), "setting parameter "+name)
}

func (p *Problem) getIntParam(name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var v C.int
	if err := p.check(C.GRBgetintparam(C.GRBgetenv(p.model), cName, &v), "getting parameter "+name); err != nil {
		return 0, err
	}

	return int(v), nil
}

func (p *Problem) setDblParam(name string, v float64) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return p.check(C.GRBsetdblparam(C.GRBgetenv(p.model), cName, C.double(v)), "setting parameter "+name)
}

func (p *Problem) getDblParam(name string) (float64, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var v C.double
	if err := p.check(C.GRBgetdblparam(C.GRBgetenv(p.model), cName, &v), "getting parameter "+name); err != nil {
		return 0, err
	}

	return float64(v), nil
}

/* Typed parameter surface */

// FeasibilityTolerance returns the solver's primal feasibility tolerance.
func (p *Problem) FeasibilityTolerance() (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrClosed
	}

	return p.getDblParam("FeasibilityTol")
}

// SetFeasibilityTolerance sets the solver's primal feasibility tolerance.
// The tolerance must lie in [1e-9, 1e-2].
func (p *Problem) SetFeasibilityTolerance(tol float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if tol < minTolerance || tol > maxTolerance {
		return errors.Errorf("feasibility tolerance %g outside [%g, %g]", tol, minTolerance, maxTolerance)
	}

	return p.setDblParam("FeasibilityTol", tol)
}

// OptimalityTolerance returns the solver's dual feasibility tolerance.
func (p *Problem) OptimalityTolerance() (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrClosed
	}

	return p.getDblParam("OptimalityTol")
}

// SetOptimalityTolerance sets the solver's dual feasibility tolerance.
// The tolerance must lie in [1e-9, 1e-2].
func (p *Problem) SetOptimalityTolerance(tol float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if tol < minTolerance || tol > maxTolerance {
		return errors.Errorf("optimality tolerance %g outside [%g, %g]", tol, minTolerance, maxTolerance)
	}

	return p.setDblParam("OptimalityTol", tol)
}

// SetOutputEnabled toggles the solver's log output, which is delivered to the
// problem's Logger rather than the console.
func (p *Problem) SetOutputEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	v := 0
	if enabled {
		v = 1
	}

	return p.setIntParam("OutputFlag", v)
}

// WarmStart returns the reoptimization algorithm currently configured.
func (p *Problem) WarmStart() (WarmStart, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return 0, ErrClosed
	}

	v, err := p.getIntParam("MultiObjMethod")

	return WarmStart(v), err
}

// SetWarmStart selects the reoptimization algorithm.
func (p *Problem) SetWarmStart(ws WarmStart) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.setIntParam("MultiObjMethod", int(ws))
}

// SetTimeLimit bounds the wall-clock time of subsequent solves.
func (p *Problem) SetTimeLimit(limit time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if limit <= 0 {
		return errors.Errorf("time limit must be positive, got %s", limit)
	}

	return p.setDblParam("TimeLimit", limit.Seconds())
}

// SetThreads bounds the number of threads the solver may use. Zero restores
// the solver default (use all cores).
func (p *Problem) SetThreads(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if n < 0 {
		return errors.Errorf("thread count must be non-negative, got %d", n)
	}

	return p.setIntParam("Threads", n)
}

// SetDualReductions toggles the dual reductions performed during presolve.
// Disabling them makes the solver report a definitive Infeasible or Unbounded
// instead of InfeasibleOrUnbounded.
func (p *Problem) SetDualReductions(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	v := 0
	if enabled {
		v = 1
	}

	return p.setIntParam("DualReductions", v)
}

/* Parameter bundles */

// Params bundles the commonly tuned solver parameters. Zero values mean
// "leave the solver default untouched".
type Params struct {
	FeasibilityTolerance float64       `mapstructure:"feasibility_tolerance"`
	OptimalityTolerance  float64       `mapstructure:"optimality_tolerance"`
	TimeLimit            time.Duration `mapstructure:"time_limit"`
	Threads              int           `mapstructure:"threads"`
	OutputEnabled        bool          `mapstructure:"output_enabled"`
}

// paramKeys lists the keys recognized in parameter files and as GRB_*
// environment variables.
var paramKeys = []string{
	"feasibility_tolerance",
	"optimality_tolerance",
	"time_limit",
	"threads",
	"output_enabled",
}

// ApplyParams applies every non-zero field of par to the problem.
func (p *Problem) ApplyParams(par Params) error {
	if par.FeasibilityTolerance != 0 {
		if err := p.SetFeasibilityTolerance(par.FeasibilityTolerance); err != nil {
			return err
		}
	}
	if par.OptimalityTolerance != 0 {
		if err := p.SetOptimalityTolerance(par.OptimalityTolerance); err != nil {
			return err
		}
	}
	if par.TimeLimit != 0 {
		if err := p.SetTimeLimit(par.TimeLimit); err != nil {
			return err
		}
	}
	if par.Threads != 0 {
		if err := p.SetThreads(par.Threads); err != nil {
			return err
		}
	}
	if par.OutputEnabled {
		if err := p.SetOutputEnabled(true); err != nil {
			return err
		}
	}

	return nil
}

// ReadParams loads a Params bundle from the given file (any format viper
// understands, picked by extension). Individual keys can be overridden
// through GRB_-prefixed environment variables, e.g. GRB_THREADS=4.
func ReadParams(path string) (Params, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("GRB")
	v.AutomaticEnv()
	for _, key := range paramKeys {
		if err := v.BindEnv(key); err != nil {
			return Params{}, errors.Wrap(err, "binding environment override")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return Params{}, errors.Wrap(err, "reading parameter file")
	}

	var par Params
	if err := v.Unmarshal(&par); err != nil {
		return Params{}, errors.Wrap(err, "parsing parameters")
	}

	return par, nil
}
