package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/pasync/pasync/pkg/errors"
)

// Mocked out for unit testing.
var exit = os.Exit

// HandleFatalError prints the user-facing message for the given error and
// exits.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic recovers from a panic in the calling goroutine, logs it, and
// exits. It should be installed with `defer` at the top of every goroutine
// so that a crash produces a readable report instead of a bare stack trace.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	log.WithField("panic", r).Error("pasync crashed. This is a bug.")
	fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
	exit(1)
}
