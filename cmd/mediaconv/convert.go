// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/internal/catalog"
	"github.com/pdiddy/mediaconv/internal/convert"
	"github.com/pdiddy/mediaconv/internal/download"
	"github.com/pdiddy/mediaconv/internal/engine"
	"github.com/pdiddy/mediaconv/internal/history"
	"github.com/pdiddy/mediaconv/internal/intake"
	"github.com/pdiddy/mediaconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a media file to another extension",
	Long: `Convert validates the file, runs it through the engine in a private work
directory, and writes <name>-converted.<ext> to the download directory. An
existing file is never overwritten; a numbered name is used instead.

Press Ctrl-C to cancel; the engine is stopped and its work directory removed.

Exit status is 2 for input problems (unsupported file, same extension,
target not offered, engine out of memory), which can be retried after
fixing the input, and 1 for anything else.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	if transcode, _ := cmd.Flags().GetBool("transcode"); transcode {
		cfg.Conversion.Strategy = types.StrategyTranscode
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := intake.Open(args[0])
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg.Engine, logger)
	if err != nil {
		return err
	}

	opts := []convert.Option{convert.WithLogger(logger)}
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, convert.WithRecorder(store))
	}

	orch, err := convert.New(eng, cfg.Conversion.Strategy, opts...)
	if err != nil {
		return err
	}

	result, err := convertFile(ctx, orch, file, to)
	if err != nil {
		return classify(withTargets(err))
	}

	path, err := download.NewDirEmitter(cfg.Download.Dir, logger).Emit(ctx, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %s)\n", file.Name, path, result.MIMEType, humanBytes(len(result.Data)))
	return nil
}

// convertFile drives the workflow: select, choose, convert.
func convertFile(ctx context.Context, orch *convert.Orchestrator, file types.SelectedFile, to string) (types.ConversionResult, error) {
	if err := orch.Select(file); err != nil {
		return types.ConversionResult{}, err
	}
	if err := orch.Choose(to); err != nil {
		return types.ConversionResult{}, err
	}
	result, err := orch.Convert(ctx)
	if err != nil && errors.Is(err, context.Canceled) {
		logger.Info("conversion cancelled", zap.String("file", file.Name))
		return types.ConversionResult{}, fmt.Errorf("conversion cancelled: %w", err)
	}
	return result, err
}

// withTargets appends the offered extensions to a target error.
func withTargets(err error) error {
	var target *apperr.UnsupportedTargetError
	if !errors.As(err, &target) {
		return err
	}
	return fmt.Errorf("%w; choose one of: %s", err, strings.Join(catalog.Get(target.Category), ", "))
}

func humanBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	convertCmd.Flags().String("to", "", "target extension (see 'mediaconv formats <file>')")
	convertCmd.Flags().Bool("transcode", false, "re-encode instead of copying the stream into the new container")
	convertCmd.Flags().String("out", "", "download directory (default ~/Downloads)")
	_ = convertCmd.MarkFlagRequired("to")
	_ = viper.BindPFlag("download.dir", convertCmd.Flags().Lookup("out"))

	rootCmd.AddCommand(convertCmd)
}
