// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package pipedrive

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors.Is for any 404 or empty-data lookup.
var ErrNotFound = errors.New("pipedrive: not found")

// APIError is any failed call to Pipedrive. StatusCode is 0 when no usable
// response arrived (transport failure, open breaker, undecodable body); Err
// then carries the cause.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("pipedrive %s: %v", e.Operation, e.Err)
	case e.Message == "":
		return fmt.Sprintf("pipedrive %s: HTTP %d", e.Operation, e.StatusCode)
	default:
		return fmt.Sprintf("pipedrive %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	}
}

// Unwrap lets errors.Is match ErrNotFound on 404 and the underlying cause otherwise.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return e.Err
}

// IsTransient reports whether err is an upstream failure, as opposed to a
// missing deal or a local error. Transient failures are logged and absorbed;
// redelivery of the event is the only retry.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func notFound(op string) error {
	return &APIError{Operation: op, StatusCode: http.StatusNotFound, Message: "not found"}
}
