package server

import (
	"errors"
	"fmt"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/config"
)

// BindError means the listening socket could not be opened, typically
// because the port is taken or privileged. The runner does not retry; restart
// policy belongs to the orchestrator.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// ApplicationInitError means the hosted application failed during its own
// startup. Component names the part that failed.
type ApplicationInitError struct {
	Component string
	Err       error
}

func (e *ApplicationInitError) Error() string {
	return fmt.Sprintf("application init failed (%s): %v", e.Component, e.Err)
}

func (e *ApplicationInitError) Unwrap() error {
	return e.Err
}

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitBindError   = 3
	ExitInitError   = 4
)

// ExitCode maps an error returned during startup or serving to the process
// exit status.
func ExitCode(err error) int {
	var (
		cfgErr  *config.ConfigurationError
		bindErr *BindError
		initErr *ApplicationInitError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &bindErr):
		return ExitBindError
	case errors.As(err, &initErr):
		return ExitInitError
	default:
		return ExitFailure
	}
}
