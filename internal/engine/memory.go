// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// memoryProbe reports the memory available for new processes, in bytes.
type memoryProbe func(ctx context.Context) (uint64, error)

func systemAvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// checkMemory fails with ErrOutOfMemory when less than min bytes are
// available. A probe failure is logged and does not block loading.
func checkMemory(ctx context.Context, probe memoryProbe, min uint64, logger *zap.Logger) error {
	if min == 0 || probe == nil {
		return nil
	}
	avail, err := probe(ctx)
	if err != nil {
		logger.Warn("could not read available memory", zap.Error(err))
		return nil
	}
	if avail < min {
		return fmt.Errorf("%w: %d bytes available, %d required", ErrOutOfMemory, avail, min)
	}
	return nil
}
