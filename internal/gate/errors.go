// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package gate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEnvelope marks a payload that cannot be processed at all.
	ErrInvalidEnvelope = errors.New("invalid webhook envelope")

	// ErrRateLimited is returned when the global event window is full.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationError describes what is wrong with an envelope.
// It matches ErrInvalidEnvelope with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidEnvelope, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidEnvelope, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEnvelope
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
