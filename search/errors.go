package search

import (
	"fmt"

	"github.com/pkg/errors"
)

// ContractViolationError is returned (by panic) when a caller invokes an
// operation in a state the operation's precondition disallows, e.g.
// MoveGreedy on an unexpanded root. This is a programming error: the core
// does not attempt to recover from it.
type ContractViolationError struct {
	Op      string
	Message string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("search: contract violation in %s: %s", e.Op, e.Message)
}

func newContractViolation(op, message string) error {
	return errors.WithStack(&ContractViolationError{Op: op, Message: message})
}

// AllocationError wraps whatever the runtime panicked with while the pool was
// growing mid-expansion. Go has no recoverable "malloc failed" signal the way
// a systems language does; ExpandLeaf's recover is a best-effort emulation of
// that failure mode, good enough to unwind the partial child list and
// preserve the "unexpanded leaf" invariant on the rare occasions a slice
// append does panic (integer overflow, or the runtime's own OOM kill
// arriving as a panic rather than a hard process exit).
type AllocationError struct {
	Cause interface{}
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("search: allocation failure: %v", e.Cause)
}

func newAllocationError(cause interface{}) error {
	return errors.WithStack(&AllocationError{Cause: cause})
}
