// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/httputil"
	"github.com/pdiddy/mediaconv/pkg/types"
)

const (
	defaultFetchTimeout = 5 * time.Minute
	userAgent           = "mediaconv/0.1"
	cacheSubdir         = "mediaconv"
)

// coreCachePath returns where the core fetched from cfg.CoreURL is cached.
func coreCachePath(cfg types.EngineConfig) (string, error) {
	u, err := url.Parse(cfg.CoreURL)
	if err != nil {
		return "", fmt.Errorf("parsing engine core URL %q: %w", cfg.CoreURL, err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		name = "ffmpeg"
	}

	dir := cfg.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("locating cache directory: %w", err)
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	return filepath.Join(dir, name), nil
}

// fetchCore downloads the ffmpeg binary at cfg.CoreURL into the cache
// directory and returns its path. A cached executable is reused, so the
// download happens once per cache.
func fetchCore(ctx context.Context, client *http.Client, cfg types.EngineConfig, logger *zap.Logger) (string, error) {
	dest, err := coreCachePath(cfg)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
		logger.Debug("using cached engine core", zap.String("path", dest))
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.CoreURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", cfg.CoreURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	logger.Info("fetching engine core", zap.String("url", cfg.CoreURL))
	resp, err := httputil.DoWithRetry(ctx, client, req, 0, logger)
	if err != nil {
		return "", fmt.Errorf("fetching engine core %s: %w", cfg.CoreURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching engine core %s: HTTP %d", cfg.CoreURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file for engine core: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("downloading engine core: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing engine core: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return "", fmt.Errorf("marking engine core executable: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("installing engine core: %w", err)
	}

	logger.Info("engine core cached", zap.String("path", dest), zap.Int64("bytes", n))
	return dest, nil
}
