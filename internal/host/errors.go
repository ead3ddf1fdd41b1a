package host

import (
	"errors"
	"fmt"
)

// Startup stages at which the host can fail.
const (
	StageResolve = "resolve"
	StageListen  = "listen"
)

var (
	ErrHandlerNotFound = errors.New("application handler not found")
	ErrDuplicate       = errors.New("application handler already registered")
	ErrAlreadyRunning  = errors.New("host already running")
)

// StartupFailure is returned by Run when the host cannot start serving.
// The process is expected to exit with a non-zero status.
type StartupFailure struct {
	Stage   string
	Handler string
	Err     error
}

func (e *StartupFailure) Error() string {
	return fmt.Sprintf("startup failed at %s (handler=%q): %v", e.Stage, e.Handler, e.Err)
}

func (e *StartupFailure) Unwrap() error { return e.Err }

// IsStartupFailure reports whether err carries a StartupFailure.
func IsStartupFailure(err error) bool {
	var sf *StartupFailure
	return errors.As(err, &sf)
}
