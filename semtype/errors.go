package semtype

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	ErrMalformedAtomicType   = errors.New("malformed atomic type")
	ErrUnresolvedDefinitions = errors.New("unresolved recursive definitions")
	ErrSlotAlreadyDefined    = errors.New("rec slot already defined")
)

// UnresolvedRecAtomError is raised when a query reaches a rec slot that was
// allocated but never filled
type UnresolvedRecAtomError struct {
	Slot RecSlot
}

func (e *UnresolvedRecAtomError) Error() string {
	return fmt.Sprintf("rec atom %s has no atomic type", e.Slot)
}

// Failure is the panic payload of a contract violation inside the type
// algebra or a query. Queries are total, so there is no error return to carry
// it; use CatchFailure at API boundaries.
type Failure struct {
	err error
}

func (f *Failure) Error() string {
	return "semtype failure: " + f.err.Error()
}

func (f *Failure) Unwrap() error {
	return f.err
}

// Format prints the captured stack with %+v
func (f *Failure) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "semtype failure: %+v", f.err)
		return
	}
	_, _ = fmt.Fprint(s, f.Error())
}

func fail(err error) {
	panic(&Failure{err: errors.WithStack(err)})
}

// CatchFailure recovers a panicking *Failure into *err. Any other panic is
// propagated. It must be deferred directly:
//
//	defer semtype.CatchFailure(&err)
func CatchFailure(err *error) {
	r := recover()
	if r == nil {
		return
	}
	failure, ok := r.(*Failure)
	if !ok {
		panic(r)
	}
	*err = failure
}
