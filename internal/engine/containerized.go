// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/container"
	"github.com/pdiddy/mediaconv/pkg/types"
)

const (
	defaultImage     = "linuxserver/ffmpeg:latest"
	containerWorkDir = "/work"
)

// Container runs ffmpeg in a docker or podman container. The session's work
// directory is bind-mounted at /work and the container has no network.
type Container struct {
	cfg    types.EngineConfig
	detect func() (container.Runtime, error)
	logger *zap.Logger
	memory memoryProbe
}

// NewContainer returns a container engine that finds its runtime with
// detect at load time.
func NewContainer(cfg types.EngineConfig, detect func() (container.Runtime, error), logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		cfg:    cfg,
		detect: detect,
		logger: logger.With(zap.String("engine", "container")),
		memory: systemAvailableMemory,
	}
}

func (c *Container) Name() string { return string(types.BackendContainer) }

func (c *Container) image() string {
	if c.cfg.Image != "" {
		return c.cfg.Image
	}
	return defaultImage
}

// Load checks available memory, detects the runtime, pulls the image if it
// is missing, and opens a session.
func (c *Container) Load(ctx context.Context) (Session, error) {
	if err := checkMemory(ctx, c.memory, c.cfg.MinFreeMemory, c.logger); err != nil {
		return nil, err
	}
	rt, err := c.ensureImage(ctx)
	if err != nil {
		return nil, err
	}

	image := c.image()
	user := hostUser()
	run := func(ctx context.Context, id, dir string, args []string, stderr io.Writer) error {
		return rt.Run(ctx, container.RunSpec{
			Name:    containerName(id),
			Image:   image,
			Mounts:  []container.Mount{{Source: dir, Target: containerWorkDir}},
			WorkDir: containerWorkDir,
			User:    user,
			Memory:  c.cfg.ContainerMemory,
			Args:    args,
			Stderr:  stderr,
		})
	}
	s, err := newSession(run, c.cfg.Log, c.logger)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("engine loaded",
		zap.String("runtime", rt.Name()),
		zap.String("image", image),
		zap.String("session", s.ID()),
	)
	return s, nil
}

// Check reports the runtime and image in use.
func (c *Container) Check(ctx context.Context) (string, error) {
	rt, err := c.detect()
	if err != nil {
		return "", err
	}
	if err := rt.ImageExists(c.image()); err != nil {
		return "", fmt.Errorf("%w (it is pulled on first conversion)", err)
	}
	return fmt.Sprintf("%s with image %s", rt.Name(), c.image()), nil
}

func (c *Container) ensureImage(ctx context.Context) (container.Runtime, error) {
	rt, err := c.detect()
	if err != nil {
		return nil, err
	}
	image := c.image()
	if err := rt.ImageExists(image); err == nil {
		return rt, nil
	}
	c.logger.Info("pulling engine image", zap.String("image", image), zap.String("runtime", rt.Name()))
	if err := rt.Pull(ctx, image); err != nil {
		return nil, err
	}
	return rt, nil
}

// containerName names the container running session id so it can be
// removed if the run is cancelled.
func containerName(id string) string {
	return "mediaconv-" + id
}

// hostUser returns "uid:gid" of the current process, or "" where the
// platform has no numeric ids.
func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}
