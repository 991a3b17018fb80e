package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

// Exit codes for hitdesk CLI
const (
	// ExitSuccess indicates the command completed and every request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates one or more requests returned a non-2xx status
	ExitRequestFailure = 1

	// ExitInvalidWorkspace indicates a workspace file failed validation
	ExitInvalidWorkspace = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitNotFound indicates a collection, request or environment does not exist
	ExitNotFound = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an explicit exit code. A nil err means the command
// already reported the failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var exitErr *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.Is(err, store.ErrInvalidCollection):
		return ExitInvalidWorkspace
	case errors.Is(err, model.ErrNotFound), errors.Is(err, env.ErrEnvironmentNotFound):
		return ExitNotFound
	case errors.Is(err, env.ErrGlobalActivation), errors.Is(err, env.ErrDuplicateEnvironment),
		errors.Is(err, workspace.ErrUnresolvedURL):
		return ExitUsageError
	default:
		return ExitRequestFailure
	}
}
