// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/pkg/types"
)

const binFFmpeg = "ffmpeg"

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Native runs a local ffmpeg binary.
type Native struct {
	cfg    types.EngineConfig
	logger *zap.Logger
	exec   executor
	memory memoryProbe
	client *http.Client
}

// NewNative returns a native engine for cfg.
func NewNative(cfg types.EngineConfig, logger *zap.Logger) *Native {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{
		cfg:    cfg,
		logger: logger.With(zap.String("engine", "native")),
		exec:   osExecutor{},
		memory: systemAvailableMemory,
		client: &http.Client{},
	}
}

func (n *Native) Name() string { return string(types.BackendNative) }

// Load checks available memory, locates (or fetches) the ffmpeg binary,
// verifies it starts, and opens a session.
func (n *Native) Load(ctx context.Context) (Session, error) {
	if err := checkMemory(ctx, n.memory, n.cfg.MinFreeMemory, n.logger); err != nil {
		return nil, err
	}
	bin, err := n.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := n.version(ctx, bin); err != nil {
		return nil, err
	}

	run := func(ctx context.Context, _, dir string, args []string, stderr io.Writer) error {
		return n.exec.Run(ctx, dir, bin, args, io.Discard, stderr)
	}
	s, err := newSession(run, n.cfg.Log, n.logger)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("engine loaded", zap.String("binary", bin), zap.String("session", s.ID()))
	return s, nil
}

// Check reports the binary in use and its version line. A core that would
// be fetched from engine.core_url is reported, not downloaded.
func (n *Native) Check(ctx context.Context) (string, error) {
	bin, err := n.locate()
	if err != nil {
		if n.cfg.CoreURL == "" {
			return "", err
		}
		cached, cerr := coreCachePath(n.cfg)
		if cerr != nil {
			return "", cerr
		}
		if _, serr := os.Stat(cached); serr != nil {
			return fmt.Sprintf("ffmpeg will be fetched from %s on first load", n.cfg.CoreURL), nil
		}
		bin = cached
	}
	v, err := n.version(ctx, bin)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s)", v, bin), nil
}

// resolve finds the ffmpeg binary locally, falling back to fetching it from
// the configured core URL.
func (n *Native) resolve(ctx context.Context) (string, error) {
	bin, err := n.locate()
	if err == nil {
		return bin, nil
	}
	if n.cfg.CorePath == "" && n.cfg.CoreURL != "" {
		return fetchCore(ctx, n.client, n.cfg, n.logger)
	}
	return "", err
}

// locate finds the ffmpeg binary at the configured core path, or on PATH.
func (n *Native) locate() (string, error) {
	if n.cfg.CorePath != "" {
		p, err := n.exec.LookPath(n.cfg.CorePath)
		if err != nil {
			return "", fmt.Errorf("%w at %s: %v", ErrNotFound, n.cfg.CorePath, err)
		}
		return p, nil
	}
	p, err := n.exec.LookPath(binFFmpeg)
	if err != nil {
		return "", fmt.Errorf("%w on PATH: install ffmpeg or set engine.core_path or engine.core_url", ErrNotFound)
	}
	return p, nil
}

// version runs "ffmpeg -version" and returns its first line.
func (n *Native) version(ctx context.Context, bin string) (string, error) {
	var stdout, stderr bytes.Buffer
	if err := n.exec.Run(ctx, "", bin, []string{"-hide_banner", "-version"}, &stdout, &stderr); err != nil {
		return "", execFailure("ffmpeg -version", err, stderr.String())
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	return line, nil
}
