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
	"context"
	"strings"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

/*
 This code is used to work around the garbage collector and keep track of objects passed to callback code.
 Inspired by github.com/mattn/go-pointer
*/

var (
	refsMu sync.Mutex
	refs   = make(map[unsafe.Pointer]interface{})
)

func saveRef(ref interface{}) unsafe.Pointer {
	refsMu.Lock()
	defer refsMu.Unlock()

	var p unsafe.Pointer = C.malloc(C.size_t(1))
	if p == nil {
		panic("could not allocate memory for CGO pointer tracking")
	}

	refs[p] = ref

	return p
}

func loadRef(ptr unsafe.Pointer) interface{} {
	refsMu.Lock()
	defer refsMu.Unlock()

	return refs[ptr]
}

func dropRef(ptr unsafe.Pointer) {
	refsMu.Lock()
	defer refsMu.Unlock()

	delete(refs, ptr)
	C.free(ptr)
}

// messageCallback receives the solver's log lines and forwards them to the
// owning problem's logger.
//
//export messageCallback
func messageCallback(model *C.GRBmodel, cbdata unsafe.Pointer, where C.int, usrdata unsafe.Pointer) C.int {
	if where != C.GRB_CB_MESSAGE {
		return 0
	}

	p, ok := loadRef(usrdata).(*Problem)
	if !ok {
		return 0
	}

	var msg *C.char
	if C.GRBcbget(cbdata, where, C.GRB_CB_MSG_STRING, unsafe.Pointer(&msg)) != 0 || msg == nil {
		return 0
	}

	p.logger.Print(strings.TrimRight(C.GoString(msg), "\n"))

	return 0
}

// solveWithContext runs solve while watching ctx; cancellation asks the
// solver to terminate, which is safe to do from another goroutine. An
// interrupt caused by the context surfaces as the context's error. Caller
// must hold the lock.
func (p *Problem) solveWithContext(ctx context.Context, solve func() error) error {
	done := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)

	go func() {
		defer watcher.Done()

		select {
		case <-ctx.Done():
			C.GRBterminate(p.model)
		case <-done:
		}
	}()

	err := solve()
	close(done)
	watcher.Wait()

	var serr *StatusError
	if errors.As(err, &serr) && serr.Status == StatusInterrupted && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}
