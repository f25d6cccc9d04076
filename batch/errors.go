package batch

import (
	"fmt"

	"github.com/pkg/errors"
)

// EvaluatorError wraps a failure surfaced by the evaluator: either the
// evaluator itself returned an error, or it returned the wrong number of
// results for the batch it was given. This is fatal to the run: Driver.Run
// returns it and the Driver is no longer usable.
type EvaluatorError struct {
	Cause    error
	Expected int
	Got      int
}

func (e *EvaluatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("batch: evaluator failed: %v", e.Cause)
	}
	return fmt.Sprintf("batch: evaluator returned %d results for a batch of %d", e.Got, e.Expected)
}

func (e *EvaluatorError) Unwrap() error { return e.Cause }

func newEvaluatorError(cause error) error {
	return errors.WithStack(&EvaluatorError{Cause: cause})
}

func newEvaluatorShapeError(expected, got int) error {
	return errors.WithStack(&EvaluatorError{Expected: expected, Got: got})
}
