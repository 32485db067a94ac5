// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download delivers a conversion result to the user as a file in
// their download directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/pkg/types"
)

const convertedSuffix = "-converted"

// maxCollisions bounds the "name (n).ext" search for a free filename.
const maxCollisions = 1000

// Emitter delivers a conversion result and returns where it ended up.
type Emitter interface {
	Emit(ctx context.Context, result types.ConversionResult) (string, error)
}

// Filename computes the download name for a source converted to ext: the
// source name with its final dot-segment removed, then "-converted." and
// the target extension. A name without a dot keeps its whole name as stem.
func Filename(sourceName, ext string) string {
	stem := sourceName
	if i := strings.LastIndex(sourceName, "."); i >= 0 {
		stem = sourceName[:i]
	}
	return stem + convertedSuffix + "." + ext
}

// MIMEType composes the MIME type attached to a converted file.
func MIMEType(c types.MediaCategory, ext string) string {
	return string(c) + "/" + ext
}

// DirEmitter writes results into Dir. Each result is first written to a
// transient file in Dir and then renamed once to its final name; the
// transient file is removed on any failure. Existing files are never
// overwritten.
type DirEmitter struct {
	Dir    string
	Logger *zap.Logger

	// linkFile is os.Link unless replaced in tests.
	linkFile func(oldname, newname string) error
}

// NewDirEmitter returns an emitter writing to dir.
func NewDirEmitter(dir string, logger *zap.Logger) *DirEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirEmitter{Dir: dir, Logger: logger, linkFile: os.Link}
}

// Emit writes result and returns the path of the delivered file.
func (e *DirEmitter) Emit(ctx context.Context, result types.ConversionResult) (string, error) {
	if result.Filename == "" {
		return "", errors.New("conversion result has no filename")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory %s: %w", e.Dir, err)
	}

	tmp, err := os.CreateTemp(e.Dir, ".mediaconv-*.part")
	if err != nil {
		return "", fmt.Errorf("creating transient file: %w", err)
	}
	tmpPath := tmp.Name()
	// Released on every path; a no-op once the rename has succeeded.
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("setting permissions on %s: %w", result.Filename, err)
	}
	if _, err := tmp.Write(result.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", result.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", result.Filename, err)
	}

	dest, err := e.link(tmpPath, result.Filename)
	if err != nil {
		return "", err
	}

	e.Logger.Info("download ready",
		zap.String("path", dest),
		zap.String("mime_type", result.MIMEType),
		zap.Int("bytes", len(result.Data)),
	)
	return dest, nil
}

// link moves tmpPath to a free name derived from filename. os.Link fails
// when the destination exists, which makes the claim atomic. Where the
// directory does not support hard links the name is reserved with O_EXCL
// and the transient file renamed over it.
func (e *DirEmitter) link(tmpPath, filename string) (string, error) {
	linkFile := e.linkFile
	if linkFile == nil {
		linkFile = os.Link
	}
	for n := 0; n < maxCollisions; n++ {
		dest := filepath.Join(e.Dir, collisionName(filename, n))
		err := linkFile(tmpPath, dest)
		if err == nil {
			return dest, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		e.Logger.Debug("hard link failed, reserving name instead", zap.String("path", dest), zap.Error(err))
		claimed, err := reserve(tmpPath, dest)
		if err != nil {
			return "", fmt.Errorf("saving %s: %w", dest, err)
		}
		if claimed {
			return dest, nil
		}
	}
	return "", fmt.Errorf("saving %s: no free filename after %d attempts", filename, maxCollisions)
}

// reserve claims dest with an exclusive create and renames tmpPath onto it.
// It reports false when dest is already taken.
func reserve(tmpPath, dest string) (bool, error) {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return false, err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(dest)
		return false, err
	}
	return true, nil
}

// collisionName returns filename for n == 0 and "stem (n).ext" otherwise.
func collisionName(filename string, n int) string {
	if n == 0 {
		return filename
	}
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(filename, ext), n, ext)
}
