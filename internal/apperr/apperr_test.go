// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unsupported type", &UnsupportedTypeError{MIMEType: "application/pdf"}, true},
		{"missing file", &MissingFileError{}, true},
		{"same extension", &SameExtensionError{Extension: "mp4"}, true},
		{"unsupported target", &UnsupportedTargetError{Category: "image", Extension: "mp4"}, true},
		{"memory", &EngineLoadMemoryError{Err: errors.New("oom")}, true},
		{"busy", ErrBusy, true},
		{"wrapped same extension", fmt.Errorf("converting: %w", &SameExtensionError{Extension: "mp4"}), true},
		{"fatal load", &EngineLoadFatalError{Err: errors.New("no binary")}, false},
		{"run failure", &EngineRunError{Op: "run", Err: errors.New("exit 1")}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUserError(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	inner := errors.New("no such file")
	err := fmt.Errorf("converting clip.mp4: %w", &EngineLoadFatalError{Err: inner})

	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsFatal(&EngineLoadMemoryError{Err: inner}))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "unsupported file type", (&UnsupportedTypeError{}).Error())
	assert.Contains(t, (&UnsupportedTypeError{MIMEType: "text/plain"}).Error(), "text/plain")
	assert.Contains(t, (&SameExtensionError{Extension: "mp4"}).Error(), "same file type")
	assert.Contains(t, (&EngineLoadMemoryError{Err: errors.New("x")}).Error(), "memory")
	assert.Contains(t, (&UnsupportedTargetError{Category: "audio"}).Error(), "no target extension")
}
