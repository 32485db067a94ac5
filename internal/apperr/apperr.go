// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr defines the error taxonomy of the conversion workflow.
//
// User-input errors (unsupported type, missing file, same extension,
// unsupported target) and engine memory exhaustion are recoverable: the
// caller reports them and may retry without reselecting the file. A fatal
// engine load error is not recovered locally. A teardown warning never
// changes the outcome of a conversion.
package apperr

import (
	"errors"
	"fmt"

	"github.com/pdiddy/mediaconv/pkg/types"
)

// ErrBusy is returned when a conversion is requested while another one is
// still in flight on the same orchestrator.
var ErrBusy = errors.New("a conversion is already in progress")

// UnsupportedTypeError reports a file whose MIME type is not audio, video,
// or image.
type UnsupportedTypeError struct {
	MIMEType string
}

func (e *UnsupportedTypeError) Error() string {
	if e.MIMEType == "" {
		return "unsupported file type"
	}
	return fmt.Sprintf("unsupported file type %q", e.MIMEType)
}

// MissingFileError reports a conversion submitted with no file selected.
type MissingFileError struct{}

func (e *MissingFileError) Error() string { return "please select a file" }

// SameExtensionError reports a target extension equal to the source's.
type SameExtensionError struct {
	Extension string
}

func (e *SameExtensionError) Error() string {
	return fmt.Sprintf("cannot convert to the same file type (%s)", e.Extension)
}

// UnsupportedTargetError reports a target extension that is not offered for
// the source's category.
type UnsupportedTargetError struct {
	Category  types.MediaCategory
	Extension string
}

func (e *UnsupportedTargetError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("no target extension chosen for %s file", e.Category)
	}
	return fmt.Sprintf("cannot convert %s file to %q", e.Category, e.Extension)
}

// EngineLoadMemoryError reports an engine that could not start because the
// system is out of memory.
type EngineLoadMemoryError struct {
	Err error
}

func (e *EngineLoadMemoryError) Error() string {
	return fmt.Sprintf("memory error: maybe your device memory is full? (%v)", e.Err)
}

func (e *EngineLoadMemoryError) Unwrap() error { return e.Err }

// EngineLoadFatalError reports any other engine load failure.
type EngineLoadFatalError struct {
	Err error
}

func (e *EngineLoadFatalError) Error() string {
	return fmt.Sprintf("loading engine: %v", e.Err)
}

func (e *EngineLoadFatalError) Unwrap() error { return e.Err }

// EngineRunError reports a failure while writing, running, or reading back
// from a loaded engine. Stderr carries the engine's diagnostic output.
type EngineRunError struct {
	Op     string
	Err    error
	Stderr string
}

func (e *EngineRunError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineRunError) Unwrap() error { return e.Err }

// TeardownWarning wraps a failure to release an engine session. It is
// logged and otherwise ignored.
type TeardownWarning struct {
	Err error
}

func (e *TeardownWarning) Error() string {
	return fmt.Sprintf("engine exit: %v", e.Err)
}

func (e *TeardownWarning) Unwrap() error { return e.Err }

// IsUserError reports whether err belongs to the recoverable class that is
// shown to the user as a notification, after which the workflow may be
// retried without selecting the file again.
func IsUserError(err error) bool {
	var (
		unsupported *UnsupportedTypeError
		missing     *MissingFileError
		same        *SameExtensionError
		target      *UnsupportedTargetError
		memory      *EngineLoadMemoryError
	)
	switch {
	case errors.As(err, &unsupported),
		errors.As(err, &missing),
		errors.As(err, &same),
		errors.As(err, &target),
		errors.As(err, &memory),
		errors.Is(err, ErrBusy):
		return true
	}
	return false
}

// IsFatal reports whether err is a fatal engine load failure.
func IsFatal(err error) bool {
	var fatal *EngineLoadFatalError
	return errors.As(err, &fatal)
}
