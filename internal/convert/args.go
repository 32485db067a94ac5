// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/internal/engine"
	"github.com/pdiddy/mediaconv/pkg/types"
)

// fileProtocol pins engine paths to plain files, so names containing a
// colon are not read as URLs and names starting with "-" are not options.
const fileProtocol = "file:"

// BuildArgs returns the engine argument list converting input to output.
// Remux copies the encoded stream into the new container; transcode lets
// the engine choose encoders for the output extension.
func BuildArgs(strategy types.Strategy, input, output string) ([]string, error) {
	input, output = fileProtocol+input, fileProtocol+output
	switch strategy {
	case types.StrategyRemux, "":
		return []string{"-i", input, "-vcodec", "copy", output}, nil
	case types.StrategyTranscode:
		return []string{"-i", input, output}, nil
	default:
		return nil, fmt.Errorf("unknown conversion strategy %q: use remux or transcode", strategy)
	}
}

// ClassifyLoadError maps an engine load failure to
// *apperr.EngineLoadMemoryError when memory ran out, and to
// *apperr.EngineLoadFatalError otherwise.
func ClassifyLoadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrOutOfMemory) || errors.Is(err, syscall.ENOMEM) {
		return &apperr.EngineLoadMemoryError{Err: err}
	}
	return &apperr.EngineLoadFatalError{Err: err}
}

// runError wraps a failure after load, keeping the engine's stderr.
func runError(op string, err error) error {
	re := &apperr.EngineRunError{Op: op, Err: err}
	var execErr *engine.ExecError
	if errors.As(err, &execErr) {
		re.Stderr = execErr.Stderr
	}
	return re
}
