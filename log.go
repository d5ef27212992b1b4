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
	"fmt"

	"github.com/rs/zerolog"

	"github.com/optkit/gurobi/logger"
)

// Logger receives the solver's log lines, one call per line.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}

// zerologLogger adapts a zerolog.Logger to the Logger interface; solver
// output is chatty, so it goes out at debug level.
type zerologLogger struct {
	l zerolog.Logger
}

func (z zerologLogger) Print(v ...interface{}) {
	z.l.Debug().Msg(fmt.Sprint(v...))
}

// DefaultLogger returns a Logger backed by the package's global zerolog
// logger, for use with WithLogger.
func DefaultLogger() Logger {
	return zerologLogger{l: logger.Logger()}
}
