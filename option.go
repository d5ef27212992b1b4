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

// Option configures a problem at creation time.
type Option func(*Problem) error

// WithLogger routes the solver's log output through the given logger.
func WithLogger(logger Logger) Option {
	return func(p *Problem) error {
		p.logger = logger

		return nil
	}
}

// WithOutputEnabled enables the solver's log output from the start.
func WithOutputEnabled() Option {
	return func(p *Problem) error {
		return p.setIntParam("OutputFlag", 1)
	}
}

// WithParams applies a parameter bundle at creation time.
func WithParams(par Params) Option {
	return func(p *Problem) error {
		return p.ApplyParams(par)
	}
}

// WithParamsFile loads a parameter file (see ReadParams) and applies it at
// creation time.
func WithParamsFile(path string) Option {
	return func(p *Problem) error {
		par, err := ReadParams(path)
		if err != nil {
			return err
		}

		return p.ApplyParams(par)
	}
}
