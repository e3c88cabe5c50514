// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
)

// ConnectionError reports that the remote Neovim session could not be
// reached. Callers can use errors.As to extract the attempted endpoint:
//
//	var connErr *bridge.ConnectionError
//	if errors.As(err, &connErr) { ... connErr.Endpoint ... }
type ConnectionError struct {
	// Endpoint is the socket path the bridge attempted to dial.
	Endpoint string
	// Err is the underlying transport error. Nil when the endpoint
	// itself was invalid (empty or whitespace).
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("nvim: no socket path configured (endpoint %q)", e.Endpoint)
	}
	return fmt.Sprintf("nvim: cannot reach %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError reports that a remote operation was attempted and the
// remote side rejected it, or that an unclassified failure occurred
// while executing it. Command is the command text or action name that
// was being executed.
type CommandError struct {
	// Command is the ex-command text, expression, or action name.
	Command string
	// Message is the remote error text (v:errmsg, or the RPC error).
	Message string
	// Err is the underlying error, when one exists.
	Err error
}

func (e *CommandError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nvim: %s: %s", e.Command, e.Message)
	}
	return fmt.Sprintf("nvim: %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError reports that caller-supplied arguments fail a domain
// precondition. The remote session is never contacted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// connectionError wraps a transport failure with the attempted endpoint.
func connectionError(endpoint string, err error) *ConnectionError {
	return &ConnectionError{Endpoint: endpoint, Err: err}
}

// commandError builds a CommandError from a remote failure.
func commandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Message: err.Error(), Err: err}
}

// validationError builds a ValidationError from a format string.
func validationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// classify normalizes err at an operation boundary: the three
// recognized kinds pass through unchanged, anything else is wrapped as
// a CommandError carrying the operation's identifying context.
func classify(context string, err error) error {
	if err == nil {
		return nil
	}
	var connErr *ConnectionError
	var cmdErr *CommandError
	var valErr *ValidationError
	if errors.As(err, &connErr) || errors.As(err, &cmdErr) || errors.As(err, &valErr) {
		return err
	}
	return commandError(context, err)
}
