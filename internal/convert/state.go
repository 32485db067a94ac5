// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/internal/catalog"
	"github.com/pdiddy/mediaconv/internal/intake"
	"github.com/pdiddy/mediaconv/pkg/types"
)

// Phase is a step of the conversion workflow.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseFileSelected    Phase = "file_selected"
	PhaseExtensionChosen Phase = "extension_chosen"
	PhaseConverting      Phase = "converting"
	PhaseComplete        Phase = "complete"
	PhaseFailed          Phase = "failed"
)

// ErrInvalidTransition is returned for an event the current phase does not
// accept.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// State is a snapshot of the conversion workflow. The zero value is Idle.
type State struct {
	Phase Phase

	// File is the selected file, nil until one is selected.
	File *types.SelectedFile

	// Category is set together with File.
	Category types.MediaCategory

	// Target is the chosen target extension.
	Target string

	// Result is set in PhaseComplete.
	Result *types.ConversionResult

	// Err is the failure that led to PhaseFailed.
	Err error
}

// Event drives Transition.
type Event interface {
	event()
}

// SelectFile replaces the selected file. The file is validated at intake; a
// rejected file leaves the state unchanged.
type SelectFile struct {
	File types.SelectedFile
}

// ChooseExtension picks the target extension.
type ChooseExtension struct {
	Extension string
}

// Submit starts a conversion of the selected file to the chosen extension.
type Submit struct{}

// Succeed ends a conversion with a result.
type Succeed struct {
	Result types.ConversionResult
}

// Fail ends a conversion with an error.
type Fail struct {
	Err error
}

// Reset returns to Idle and drops the selected file.
type Reset struct{}

func (SelectFile) event()      {}
func (ChooseExtension) event() {}
func (Submit) event()          {}
func (Succeed) event()         {}
func (Fail) event()            {}
func (Reset) event()           {}

// Transition returns the state that follows s on e. It has no side effects.
// When e is rejected the returned state is s itself, so the caller can
// report the error and let the user retry from where they were.
func Transition(s State, e Event) (State, error) {
	if s.Phase == "" {
		s.Phase = PhaseIdle
	}
	if s.Phase == PhaseConverting {
		switch e := e.(type) {
		case Succeed:
			result := e.Result
			s.Phase, s.Result, s.Err = PhaseComplete, &result, nil
			return s, nil
		case Fail:
			s.Phase, s.Result, s.Err = PhaseFailed, nil, e.Err
			return s, nil
		default:
			return s, apperr.ErrBusy
		}
	}

	switch e := e.(type) {
	case SelectFile:
		v, err := intake.Validate(e.File)
		if err != nil {
			return s, err
		}
		file := v.File
		return State{Phase: PhaseFileSelected, File: &file, Category: v.Category}, nil

	case ChooseExtension:
		if s.File == nil {
			return s, &apperr.MissingFileError{}
		}
		s.Phase = PhaseExtensionChosen
		s.Target = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e.Extension), "."))
		s.Result, s.Err = nil, nil
		return s, nil

	case Submit:
		if err := guard(s); err != nil {
			return s, err
		}
		s.Phase, s.Result, s.Err = PhaseConverting, nil, nil
		return s, nil

	case Reset:
		return State{Phase: PhaseIdle}, nil

	default:
		return s, fmt.Errorf("%w: %T in phase %s", ErrInvalidTransition, e, s.Phase)
	}
}

// guard checks, in order, the conditions for entering PhaseConverting.
func guard(s State) error {
	if s.File == nil {
		return &apperr.MissingFileError{}
	}
	if !s.Category.Valid() {
		return &apperr.UnsupportedTypeError{MIMEType: s.File.MIMEType}
	}
	if strings.EqualFold(s.Target, intake.Extension(s.File.Name)) {
		return &apperr.SameExtensionError{Extension: s.Target}
	}
	if !catalog.Contains(s.Category, s.Target) {
		return &apperr.UnsupportedTargetError{Category: s.Category, Extension: s.Target}
	}
	return nil
}
