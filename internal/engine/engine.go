// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine drives ffmpeg through a load/write/run/read/exit session.
//
// A Session owns a private work directory that plays the role of the
// engine's virtual filesystem: callers write the input file into it, run
// an argument list against it, and read the output back. Sessions are not
// safe for concurrent use and are never shared between conversions.
//
// Two backends exist: Native runs a local ffmpeg binary (fetching it once
// from a configured URL when missing), Container runs ffmpeg in a docker or
// podman container with the work directory mounted.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/container"
	"github.com/pdiddy/mediaconv/pkg/types"
)

var (
	// ErrOutOfMemory marks failures caused by memory exhaustion.
	ErrOutOfMemory = errors.New("engine out of memory")

	// ErrNotFound is returned by Load when no ffmpeg binary can be located.
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrSessionClosed is returned by operations on an exited session.
	ErrSessionClosed = errors.New("engine session closed")

	// ErrInvalidName is returned for file names that would escape the
	// session's work directory.
	ErrInvalidName = errors.New("invalid engine file name")
)

// Engine loads sessions.
type Engine interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string

	// Load prepares the engine runtime and returns a fresh session.
	Load(ctx context.Context) (Session, error)

	// Check reports whether the engine can be loaded, without opening a
	// session or fetching assets, and describes what would be used.
	Check(ctx context.Context) (string, error)
}

// Session is an exclusive handle on a loaded engine.
type Session interface {
	// ID identifies the session in logs.
	ID() string

	// WriteFile stores data under name in the session's filesystem.
	WriteFile(name string, data []byte) error

	// Run executes the engine with args and waits for it to finish.
	// Cancelling ctx kills the engine process.
	Run(ctx context.Context, args []string) error

	// ReadFile returns the contents of name from the session's filesystem.
	ReadFile(name string) ([]byte, error)

	// Exit releases the session. Further calls fail with ErrSessionClosed.
	Exit() error
}

// ExecError reports a failed engine invocation together with its stderr.
type ExecError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// New returns the engine selected by cfg.Backend.
func New(cfg types.EngineConfig, logger *zap.Logger) (Engine, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return NewNative(cfg, logger), nil
	case types.BackendContainer:
		return NewContainer(cfg, container.DetectRuntime, logger), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q: use native or container", cfg.Backend)
	}
}
