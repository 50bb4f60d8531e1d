package errors

import (
	"fmt"
)

// FriendlyError is an error whose message is meant to be read by end users.
// It's printed as-is, without the "FATAL" log decoration used for
// unexpected errors.
type FriendlyError struct {
	Message string
}

// NewFriendlyError creates a new FriendlyError with the given message.
func NewFriendlyError(format string, args ...interface{}) FriendlyError {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the user-facing message.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

type friendlyError interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error.
func GetPrintableMessage(err error) string {
	if friendly, ok := err.(friendlyError); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
