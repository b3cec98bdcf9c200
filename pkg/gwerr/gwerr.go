// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gwerr defines the gateway's domain-level error kinds.
//
// Every component that can fail at a boundary (tool adapters, the agent
// loop, auth, the weather subservice) returns or wraps one of these kinds
// rather than an ad-hoc error string, so the gateway's HTTP layer can
// translate failures to status codes with a single table lookup.
package gwerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a domain error.
type Kind string

const (
	KindInvalidInput      Kind = "invalid-input"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not-found"
	KindConflict          Kind = "conflict"
	KindDeadlineExceeded  Kind = "deadline-exceeded"
	KindBackendUnavailable Kind = "backend-unavailable"
	KindBackendRejected   Kind = "backend-rejected"
	KindTimeout           Kind = "timeout"
	KindInternal          Kind = "internal"
)

// Error is the concrete domain error type. Field is optional and names the
// offending input field for KindInvalidInput errors.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a domain kind to an underlying error, preserving it for
// errors.Unwrap/errors.Is.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithField returns a copy of the error annotated with the offending field
// name, used for KindInvalidInput responses that must name the field.
func (e *Error) WithField(field string) *Error {
	cp := *e
	cp.Field = field
	return &cp
}

// As extracts a *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, else
// KindInternal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
