// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mediaconv/internal/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the conversion engine can be loaded",
	Long: `Check resolves the configured engine backend without converting anything
and without downloading engine assets or images. It prints what a
conversion would use, or why the engine cannot be loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.New(cfg.Engine, logger)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "backend:   %s\n", eng.Name())
		fmt.Fprintf(w, "strategy:  %s\n", cfg.Conversion.Strategy)
		fmt.Fprintf(w, "downloads: %s\n", cfg.Download.Dir)
		if cfg.History.Enabled {
			fmt.Fprintf(w, "history:   %s\n", cfg.History.Dir)
		} else {
			fmt.Fprintln(w, "history:   disabled")
		}

		desc, err := eng.Check(cmd.Context())
		if err != nil {
			fmt.Fprintln(w, "engine:    unavailable")
			return err
		}
		fmt.Fprintf(w, "engine:    %s\n", desc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
