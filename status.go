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

import "fmt"

// Status is the solver's optimization status for the most recent solve.
type Status C.int

const (
	StatusLoaded                = Status(C.GRB_LOADED)
	StatusOptimal               = Status(C.GRB_OPTIMAL)
	StatusInfeasible            = Status(C.GRB_INFEASIBLE)
	StatusInfeasibleOrUnbounded = Status(C.GRB_INF_OR_UNBD)
	StatusUnbounded             = Status(C.GRB_UNBOUNDED)
	StatusCutoff                = Status(C.GRB_CUTOFF)
	StatusIterationLimit        = Status(C.GRB_ITERATION_LIMIT)
	StatusNodeLimit             = Status(C.GRB_NODE_LIMIT)
	StatusTimeLimit             = Status(C.GRB_TIME_LIMIT)
	StatusSolutionLimit         = Status(C.GRB_SOLUTION_LIMIT)
	StatusInterrupted           = Status(C.GRB_INTERRUPTED)
	StatusNumeric               = Status(C.GRB_NUMERIC)
	StatusSuboptimal            = Status(C.GRB_SUBOPTIMAL)
	StatusInProgress            = Status(C.GRB_INPROGRESS)
	StatusUserObjectiveLimit    = Status(C.GRB_USER_OBJ_LIMIT)
)

// Success reports whether a solution is available for this status, i.e.
// whether the solver finished with an optimal or suboptimal solution.
func (s Status) Success() bool {
	return s == StatusOptimal || s == StatusSuboptimal
}

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "Loaded"
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusInfeasibleOrUnbounded:
		return "InfeasibleOrUnbounded"
	case StatusUnbounded:
		return "Unbounded"
	case StatusCutoff:
		return "Cutoff"
	case StatusIterationLimit:
		return "IterationLimit"
	case StatusNodeLimit:
		return "NodeLimit"
	case StatusTimeLimit:
		return "TimeLimit"
	case StatusSolutionLimit:
		return "SolutionLimit"
	case StatusInterrupted:
		return "Interrupted"
	case StatusNumeric:
		return "Numeric"
	case StatusSuboptimal:
		return "Suboptimal"
	case StatusInProgress:
		return "InProgress"
	case StatusUserObjectiveLimit:
		return "UserObjectiveLimit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Description returns the solver's long-form explanation of the status, as
// documented for the Status model attribute.
func (s Status) Description() string {
	switch s {
	case StatusLoaded:
		return "Model is loaded, but no solution information is available."
	case StatusOptimal:
		return "Model was solved to optimality (subject to tolerances), and an optimal solution is available."
	case StatusInfeasible:
		return "Model was proven to be infeasible."
	case StatusInfeasibleOrUnbounded:
		return "Model was proven to be either infeasible or unbounded. To obtain a more definitive conclusion," +
			" set the DualReductions parameter to 0 and reoptimize."
	case StatusUnbounded:
		return "Model was proven to be unbounded. " +
			"Important note: an unbounded status indicates the presence of an unbounded ray that allows the objective to improve without limit. " +
			"It says nothing about whether the model has a feasible solution. " +
			"If you require information on feasibility, you should set the objective to zero and reoptimize."
	case StatusCutoff:
		return "Optimal objective for model was proven to be worse than the value specified in the Cutoff parameter. " +
			"No solution information is available."
	case StatusIterationLimit:
		return "Optimization terminated because the total number of simplex iterations performed exceeded the value specified in the IterationLimit parameter," +
			" or because the total number of barrier iterations exceeded the value specified in the BarIterLimit parameter."
	case StatusNodeLimit:
		return "Optimization terminated because the total number of branch-and-cut nodes explored exceeded the value specified in the NodeLimit parameter."
	case StatusTimeLimit:
		return "Optimization terminated because the time expended exceeded the value specified in the TimeLimit parameter."
	case StatusSolutionLimit:
		return "Optimization terminated because the number of solutions found reached the value specified in the SolutionLimit parameter."
	case StatusInterrupted:
		return "Optimization was terminated by the user."
	case StatusNumeric:
		return "Optimization was terminated due to unrecoverable numerical difficulties."
	case StatusSuboptimal:
		return "Unable to satisfy optimality tolerances; a sub-optimal solution is available."
	case StatusInProgress:
		return "An asynchronous optimization call was made, but the associated optimization run is not yet complete."
	case StatusUserObjectiveLimit:
		return "User specified an objective limit (a bound on either the best objective or the best bound), and that limit has been reached."
	default:
		return "The solver has not been run yet."
	}
}

// StatusError is returned by Solve when the solver terminates without a
// usable solution. The status, iteration count and description of the problem
// remain queryable after the failed solve.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "solve finished without a usable solution: " + e.Status.String()
}
