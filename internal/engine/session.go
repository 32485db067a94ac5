// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// runner executes the engine for session id with args inside dir,
// streaming its diagnostics to stderr.
type runner func(ctx context.Context, id, dir string, args []string, stderr io.Writer) error

// session is a Session backed by a private temporary directory.
type session struct {
	id      string
	dir     string
	run     runner
	verbose bool
	logger  *zap.Logger
	closed  bool
}

func newSession(run runner, verbose bool, logger *zap.Logger) (*session, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp("", "mediaconv-"+id[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("creating engine work directory: %w", err)
	}
	return &session{
		id:      id,
		dir:     dir,
		run:     run,
		verbose: verbose,
		logger:  logger.With(zap.String("session", id)),
	}, nil
}

func (s *session) ID() string { return s.id }

func (s *session) WriteFile(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s to engine: %w", name, err)
	}
	return nil
}

func (s *session) ReadFile(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s from engine: %w", name, err)
	}
	return data, nil
}

func (s *session) Run(ctx context.Context, args []string) error {
	if s.closed {
		return ErrSessionClosed
	}

	var stderr bytes.Buffer
	var w io.Writer = &stderr
	if s.verbose {
		zw := &zapio.Writer{Log: s.logger, Level: zapcore.DebugLevel}
		defer zw.Close()
		w = io.MultiWriter(&stderr, zw)
	}

	full := append(preamble(s.verbose), args...)
	s.logger.Debug("running engine", zap.Strings("args", full))

	if err := s.run(ctx, s.id, s.dir, full, w); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("engine run interrupted: %w", ctxErr)
		}
		return execFailure("ffmpeg", err, stderr.String())
	}
	return nil
}

func (s *session) Exit() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("removing engine work directory %s: %w", s.dir, err)
	}
	return nil
}

// path resolves name inside the work directory. Only bare file names are
// accepted.
func (s *session) path(name string) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// preamble returns the flags prepended to every engine invocation. The
// work directory is fresh, so overwriting (-y) never clobbers user files.
func preamble(verbose bool) []string {
	level := "error"
	if verbose {
		level = "info"
	}
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", level}
}
