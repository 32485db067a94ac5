// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/mediaconv/pkg/types"
)

const (
	envPrefix  = "MEDIACONV"
	configName = "mediaconv"
	appDir     = "mediaconv"
)

// readConfig loads envFile into the process environment (without
// overriding variables already set), registers defaults, and reads the
// config file: cfgFile when given, else mediaconv.yaml in the working
// directory or ~/.config/mediaconv/config.yaml. A missing default config
// file is not an error.
func readConfig(v *viper.Viper, cfgFile, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigType("yaml")
	v.SetConfigName(configName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if v.ConfigFileUsed() == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path := filepath.Join(dir, appDir, "config.yaml")
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// setDefaults registers every key so that MEDIACONV_ variables bind even
// when no config file sets them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.backend", string(types.BackendNative))
	v.SetDefault("engine.core_path", "")
	v.SetDefault("engine.core_url", "")
	v.SetDefault("engine.cache_dir", "")
	v.SetDefault("engine.image", "")
	v.SetDefault("engine.container_memory", "")
	v.SetDefault("engine.min_free_memory", uint64(128<<20))
	v.SetDefault("engine.fetch_timeout", 5*time.Minute)
	v.SetDefault("engine.log", false)

	v.SetDefault("conversion.strategy", string(types.StrategyRemux))

	v.SetDefault("download.dir", defaultDownloadDir())

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dir", defaultHistoryDir())
	v.SetDefault("history.max_results", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// loadConfig decodes v into a Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	c.Download.Dir = expandHome(c.Download.Dir)
	c.History.Dir = expandHome(c.History.Dir)
	c.Engine.CacheDir = expandHome(c.Engine.CacheDir)
	return c, nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

func defaultHistoryDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appDir)
	}
	return filepath.Join(dir, appDir)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
