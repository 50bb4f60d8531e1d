package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// ContextError annotates an error with a short description of the operation
// that failed. Contexts stack as the error propagates up the call chain, so
// the final message reads like a trace: "parse config: read file: ...".
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// Unwrap returns the wrapped error so that ContextError works with the
// standard errors.Is and errors.As helpers.
func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext wraps the given error with a short description of the failed
// operation.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error after stripping all the context
// annotations. It's useful for checking the type of the original error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}
