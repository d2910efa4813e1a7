package domain

import "fmt"

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrNetwork indicates the round trip to the analytics backend never
// produced a response (offline, DNS, refused, timeout).
type ErrNetwork struct {
	Op  string
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Op, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrHTTP indicates the backend answered with a non-2xx status. Detail is
// the backend's own message, shown verbatim in the error banner.
type ErrHTTP struct {
	Status   int
	Detail   string
	Endpoint string
}

func (e *ErrHTTP) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	return fmt.Sprintf("HTTP error! status: %d, detail: %s", e.Status, e.Detail)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrSuperseded indicates a newer request for the same view replaced this
// one before it completed; its result was discarded.
type ErrSuperseded struct {
	Key string
}

func (e *ErrSuperseded) Error() string {
	return fmt.Sprintf("request superseded by a newer one: %s", e.Key)
}

// ErrInvalidTransition indicates a form action that the current workflow
// state does not allow.
type ErrInvalidTransition struct {
	From   string
	Action string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Action, e.From)
}

// ErrConflict indicates the request needs a step the caller skipped, such
// as confirming a delete.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
