package orchestrator

import (
	"errors"

	"github.com/compozy/semtag/internal/domain"
)

// ExitError carries the process exit code of a failed workflow.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit code: 0 on success, 2 when HEAD
// is already tagged, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, domain.ErrAlreadyTagged) {
		return ExitAlreadyTagged
	}
	return ExitFailure
}

func newExitError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitFailure
	if errors.Is(err, domain.ErrAlreadyTagged) {
		code = ExitAlreadyTagged
	}
	return &ExitError{Code: code, Err: err}
}
