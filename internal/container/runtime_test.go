// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins  map[string]bool // binary -> whether LookPath succeeds
	runnableCmds   map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runStreamsFunc func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
	silentCalls    []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	m.silentCalls = append(m.silentCalls, key)
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunStreams(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	if m.runStreamsFunc != nil {
		return m.runStreamsFunc(ctx, name, args, stdout, stderr)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both available, docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "linuxserver/ffmpeg:latest",
			cmds:  map[string]bool{"docker image inspect linuxserver/ffmpeg:latest": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "linuxserver/ffmpeg:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "linuxserver/ffmpeg:latest",
			cmds:  map[string]bool{"podman image exists linuxserver/ffmpeg:latest": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "linuxserver/ffmpeg:latest",
			cmds:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			rt := tt.mkRT(exec)
			err := rt.ImageExists(tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	spec := RunSpec{
		Image:   "linuxserver/ffmpeg:latest",
		Mounts:  []Mount{{Source: "/tmp/mediaconv-1", Target: "/work"}},
		WorkDir: "/work",
		Args:    []string{"-i", "song.mp3", "-vcodec", "copy", "song-converted.wav"},
	}
	tests := []struct {
		name       string
		mkRT       func(*mockExecutor) Runtime
		spec       RunSpec
		streamFunc func(context.Context, string, []string, io.Writer, io.Writer) error
		wantBin    string
		wantArgs   []string
		wantStderr string
		wantErr    bool
	}{
		{
			name:    "docker run mounts workdir and forwards args",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			spec:    spec,
			wantBin: "docker",
			wantArgs: []string{
				"run", "--rm", "--network", "none",
				"-v", "/tmp/mediaconv-1:/work", "-w", "/work",
				"linuxserver/ffmpeg:latest",
				"-i", "song.mp3", "-vcodec", "copy", "song-converted.wav",
			},
		},
		{
			name: "podman run with memory limit",
			mkRT: func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			spec: RunSpec{
				Image:  "ffmpeg:7",
				Memory: "1g",
				Args:   []string{"-version"},
			},
			wantBin:  "podman",
			wantArgs: []string{"run", "--rm", "--network", "none", "--memory", "1g", "ffmpeg:7", "-version"},
		},
		{
			name:     "named container",
			mkRT:     func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			spec:     RunSpec{Name: "mediaconv-abc", Image: "ffmpeg:7", Args: []string{"-version"}},
			wantBin:  "docker",
			wantArgs: []string{"run", "--rm", "--network", "none", "--name", "mediaconv-abc", "ffmpeg:7", "-version"},
		},
		{
			name: "stderr is streamed to the caller",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			spec: spec,
			streamFunc: func(_ context.Context, _ string, _ []string, _ io.Writer, stderr io.Writer) error {
				_, _ = stderr.Write([]byte("Input #0, mp3"))
				return nil
			},
			wantStderr: "Input #0, mp3",
		},
		{
			name: "run failure returns wrapped error",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			spec: spec,
			streamFunc: func(context.Context, string, []string, io.Writer, io.Writer) error {
				return errors.New("container exited with code 1")
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBin string
			var gotArgs []string
			exec := &mockExecutor{runStreamsFunc: func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
				gotBin, gotArgs = name, args
				if tt.streamFunc != nil {
					return tt.streamFunc(ctx, name, args, stdout, stderr)
				}
				return nil
			}}
			rt := tt.mkRT(exec)
			var errBuf bytes.Buffer
			s := tt.spec
			s.Stderr = &errBuf
			err := rt.Run(context.Background(), s)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.spec.Image) {
					t.Errorf("error should mention image, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBin != "" && gotBin != tt.wantBin {
				t.Errorf("got binary %q, want %q", gotBin, tt.wantBin)
			}
			if tt.wantArgs != nil && strings.Join(gotArgs, " ") != strings.Join(tt.wantArgs, " ") {
				t.Errorf("got args %q, want %q", gotArgs, tt.wantArgs)
			}
			if got := errBuf.String(); got != tt.wantStderr {
				t.Errorf("got stderr %q, want %q", got, tt.wantStderr)
			}
		})
	}
}

func TestRunCancelRemovesContainer(t *testing.T) {
	exec := &mockExecutor{
		runnableCmds: map[string]bool{"docker rm --force mediaconv-abc": true},
		runStreamsFunc: func(ctx context.Context, _ string, _ []string, _, _ io.Writer) error {
			<-ctx.Done()
			return errors.New("signal: killed")
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newDockerRuntime(exec).Run(ctx, RunSpec{Name: "mediaconv-abc", Image: "ffmpeg:7"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(exec.silentCalls) != 1 || exec.silentCalls[0] != "docker rm --force mediaconv-abc" {
		t.Errorf("got silent calls %q, want the container removed", exec.silentCalls)
	}
}

func TestRunCancelRemoveFailureIsReported(t *testing.T) {
	exec := &mockExecutor{runStreamsFunc: func(ctx context.Context, _ string, _ []string, _, _ io.Writer) error {
		return ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newPodmanRuntime(exec).Run(ctx, RunSpec{Name: "mediaconv-abc", Image: "ffmpeg:7"})
	if err == nil || !strings.Contains(err.Error(), "removing container mediaconv-abc") {
		t.Errorf("expected removal failure in error, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestRunFailureWithoutCancelKeepsContainer(t *testing.T) {
	exec := &mockExecutor{runStreamsFunc: func(context.Context, string, []string, io.Writer, io.Writer) error {
		return errors.New("exit status 1")
	}}
	if err := newDockerRuntime(exec).Run(context.Background(), RunSpec{Name: "mediaconv-abc", Image: "ffmpeg:7"}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(exec.silentCalls) != 0 {
		t.Errorf("unexpected silent calls %q", exec.silentCalls)
	}
}

func TestPull(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{runStreamsFunc: func(_ context.Context, _ string, args []string, _, _ io.Writer) error {
		gotArgs = args
		return nil
	}}
	if err := newDockerRuntime(exec).Pull(context.Background(), "ffmpeg:7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(gotArgs, " ") != "pull ffmpeg:7" {
		t.Errorf("got args %q", gotArgs)
	}

	failing := &mockExecutor{runStreamsFunc: func(context.Context, string, []string, io.Writer, io.Writer) error {
		return errors.New("network unreachable")
	}}
	err := newPodmanRuntime(failing).Pull(context.Background(), "ffmpeg:7")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg:7") {
		t.Errorf("expected pull error mentioning image, got %v", err)
	}
}

type exitErr struct{ code int }

func (e exitErr) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitErr) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	if got := ExitCode(fmt.Errorf("running: %w", exitErr{code: 137})); got != 137 {
		t.Errorf("ExitCode = %d, want 137", got)
	}
	if got := ExitCode(errors.New("plain")); got != -1 {
		t.Errorf("ExitCode = %d, want -1", got)
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	docker := newDockerRuntime(exec)
	if docker.Name() != "docker" {
		t.Errorf("docker runtime name = %q, want %q", docker.Name(), "docker")
	}
	podman := newPodmanRuntime(exec)
	if podman.Name() != "podman" {
		t.Errorf("podman runtime name = %q, want %q", podman.Name(), "podman")
	}
}
