/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package apperrors defines the error taxonomy shared by every layer of the
// deployer: handlers translate adapter and filesystem errors into one of
// these Kinds before returning, so the CLI can pick an exit code and an
// actionable hint without inspecting error strings.
package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for exit-code selection and user-facing hints.
type Kind string

const (
	KindInvalidInput        Kind = "InvalidInput"
	KindConfigInvalid       Kind = "ConfigInvalid"
	KindInvalidEnvironment  Kind = "InvalidEnvironmentName"
	KindSSHKeyUnavailable   Kind = "SshKeyUnavailable"
	KindNotFound            Kind = "NotFound"
	KindNameAlreadyExists   Kind = "NameAlreadyExists"
	KindUnexpectedState     Kind = "UnexpectedState"
	KindBusy                Kind = "Busy"
	KindIoError             Kind = "IoError"
	KindCorrupt             Kind = "Corrupt"
	KindIncompatibleVersion Kind = "IncompatibleVersion"
	KindTemplateRender      Kind = "TemplateRender"
	KindArtifactConflict    Kind = "ArtifactConflict"
	KindToolMissing         Kind = "ToolMissing"
	KindToolInvocation      Kind = "ToolInvocation"
	KindUnreachable         Kind = "Unreachable"
	KindCancelled           Kind = "Cancelled"
)

// Error is the concrete error type returned across package boundaries in
// this module. It carries a classification (Kind), the wrapped cause, and
// an optional actionable hint the view renders in Verbose/Debug mode.
type Error struct {
	Kind  Kind
	Cause error
	Hint  string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Cause.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given Kind wrapping msg as its own cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Cause: errors.New(msg)}
}

// Newf builds an Error of the given Kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Cause: errors.Errorf(format, args...)}
}

// Wrap classifies an existing error under Kind, preserving its chain.
func Wrap(kind Kind, cause error, msg string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: errors.Wrap(cause, msg)}
}

// Wrapf is like Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: errors.Wrapf(cause, format, args...)}
}

// WithHint attaches an actionable hint to an Error and returns it.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindIoError for unclassified errors since most unclassified failures
// in this codebase originate from the filesystem.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIoError
}

// HintFor returns the hint attached to err, if any.
func HintFor(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}

// ExitCode maps a Kind to the process exit code contract from spec.md §6.
func ExitCode(kind Kind) int {
	switch kind {
	case "":
		return 0
	case KindNotFound, KindIoError, KindCorrupt, KindIncompatibleVersion:
		return 2
	case KindBusy:
		return 3
	default:
		return 1
	}
}
