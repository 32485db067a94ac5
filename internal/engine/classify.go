// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"errors"
	"regexp"
	"syscall"

	"github.com/pdiddy/mediaconv/internal/container"
)

// exitOOMKilled is the status of a process killed by the kernel OOM killer
// (128 + SIGKILL); container runtimes report it for memory-limit kills.
const exitOOMKilled = 137

// reOutOfMemory matches ffmpeg and runtime diagnostics for allocation
// failures.
var reOutOfMemory = regexp.MustCompile(
	`(?i)cannot allocate memory|out of memory|oom-?kill|` +
		`memory allocation failed|failed to allocate|std::bad_alloc`)

// isMemoryFailure reports whether a failed invocation ran out of memory.
func isMemoryFailure(err error, stderr string) bool {
	if errors.Is(err, syscall.ENOMEM) {
		return true
	}
	if container.ExitCode(err) == exitOOMKilled {
		return true
	}
	return reOutOfMemory.MatchString(stderr)
}

// execFailure wraps a failed invocation as an *ExecError, joining
// ErrOutOfMemory when the failure was caused by memory exhaustion.
func execFailure(op string, err error, stderr string) error {
	if isMemoryFailure(err, stderr) {
		err = errors.Join(ErrOutOfMemory, err)
	}
	return &ExecError{Op: op, Stderr: stderr, Err: err}
}
