// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mediaconv CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/internal/logging"
	"github.com/pdiddy/mediaconv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	exitFatal = 1
	exitUser  = 2
)

var (
	// cfg is loaded from the config file, .env, and MEDIACONV_ variables
	// before any subcommand runs.
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the mediaconv CLI.
var rootCmd = &cobra.Command{
	Use:   "mediaconv",
	Short: "Convert local media files between container formats",
	Long: `mediaconv converts an audio, video, or image file to another extension on
this machine. Nothing is uploaded: the file is handed to a local ffmpeg
(native binary or container) in a private work directory, and the result is
written to your download directory as <name>-converted.<ext>.

By default the encoded stream is copied into the new container (remux).
Use --transcode, or conversion.strategy: transcode, to re-encode instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = c
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mediaconv.yaml or ~/.config/mediaconv/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().String("engine", "", "engine backend: native or container")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("engine.backend", rootCmd.PersistentFlags().Lookup("engine"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if err := readConfig(viper.GetViper(), cfgFile, ".env"); err != nil {
		fmt.Fprintln(os.Stderr, "mediaconv:", err)
		os.Exit(exitFatal)
	}
}

// exitError carries the process exit status for err and an optional hint.
type exitError struct {
	code int
	err  error
	hint string
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// classify maps a workflow error to its exit status. User errors can be
// retried as-is after fixing the input; fatal engine errors need the
// engine fixed first.
func classify(err error) error {
	switch {
	case apperr.IsUserError(err):
		return &exitError{code: exitUser, err: err}
	case apperr.IsFatal(err):
		return &exitError{
			code: exitFatal,
			err:  err,
			hint: "the engine could not be started; run 'mediaconv check', fix the problem, and run the conversion again",
		}
	default:
		return err
	}
}

// report prints err and returns the exit status.
func report(w io.Writer, err error) int {
	fmt.Fprintln(w, "mediaconv:", err)

	var runErr *apperr.EngineRunError
	if errors.As(err, &runErr) && runErr.Stderr != "" {
		fmt.Fprintln(w, "engine output:")
		for _, line := range strings.Split(strings.TrimSpace(runErr.Stderr), "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.hint != "" {
			fmt.Fprintln(w, "hint:", exit.hint)
		}
		return exit.code
	}
	return exitFatal
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}
