// SPDX-FileCopyrightText: 2020 jecoz
//
// SPDX-License-Identifier: BSD-3-Clause

package queueworker

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a configuration error.
type ErrorCode string

const (
	CodeDesiredCountCapacity ErrorCode = "DESIRED_COUNT_CAPACITY"
	CodeLaunchStrategy       ErrorCode = "LAUNCH_STRATEGY"
	CodeInvalidBounds        ErrorCode = "INVALID_BOUNDS"
	CodeReservedEnvironment  ErrorCode = "RESERVED_ENVIRONMENT"
	CodeRequiredField        ErrorCode = "REQUIRED_FIELD"
	CodeInvalidReference     ErrorCode = "INVALID_REFERENCE"
)

// ConfigError is returned when the composition input violates one of
// the rules a resource graph must satisfy. No graph is ever returned
// together with a ConfigError.
type ConfigError struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"error"`
}

// ConfigErrorOption mutates a ConfigError during construction.
type ConfigErrorOption func(*ConfigError)

// WithField records the input field that caused the error.
func WithField(field string) ConfigErrorOption {
	return func(e *ConfigError) {
		e.Field = field
	}
}

func NewConfigError(code ErrorCode, message string, opts ...ConfigErrorOption) *ConfigError {
	err := &ConfigError{Code: code, Message: message}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

func configErrorf(code ErrorCode, field, format string, args ...interface{}) *ConfigError {
	return NewConfigError(code, fmt.Sprintf(format, args...), WithField(field))
}

// Error returns the message only, so that callers see the violated
// rule verbatim.
func (e *ConfigError) Error() string { return e.Message }

// IsConfigError reports whether err, or any error it wraps, is a
// *ConfigError.
func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

// ErrorCodeOf returns the code of the first *ConfigError found in err's
// chain, or the empty code.
func ErrorCodeOf(err error) ErrorCode {
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
