// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mediaconv/internal/catalog"
	"github.com/pdiddy/mediaconv/internal/intake"
	"github.com/pdiddy/mediaconv/pkg/types"
)

var formatsCmd = &cobra.Command{
	Use:   "formats [file|category]",
	Short: "List the target extensions offered for a file or category",
	Long: `Formats lists the extensions a file can be converted to. The argument is
either a file, whose type is detected, or one of the categories audio,
video, and image. Without an argument every category is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormats,
}

// formatList is the machine-readable output of formats.
type formatList struct {
	Source   string              `json:"source,omitempty" yaml:"source,omitempty"`
	MIMEType string              `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Category types.MediaCategory `json:"category" yaml:"category"`
	Current  string              `json:"current,omitempty" yaml:"current,omitempty"`
	Targets  []string            `json:"targets" yaml:"targets"`
}

func runFormats(cmd *cobra.Command, args []string) error {
	lists, err := resolveFormats(args)
	if err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	yamlOut, _ := cmd.Flags().GetBool("yaml")
	w := cmd.OutOrStdout()
	switch {
	case jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lists)
	case yamlOut:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(lists)
	}

	for _, l := range lists {
		if l.Source != "" {
			fmt.Fprintf(w, "%s (%s)\n", l.Source, l.MIMEType)
		} else {
			fmt.Fprintf(w, "%s\n", l.Category)
		}
		printTargets(w, l)
	}
	return nil
}

func resolveFormats(args []string) ([]formatList, error) {
	if len(args) == 0 {
		var lists []formatList
		for _, c := range catalog.Categories() {
			lists = append(lists, formatList{Category: c, Targets: catalog.Get(c)})
		}
		return lists, nil
	}

	if c := types.MediaCategory(strings.ToLower(args[0])); c.Valid() {
		return []formatList{{Category: c, Targets: catalog.Get(c)}}, nil
	}

	file, err := intake.Open(args[0])
	if err != nil {
		return nil, err
	}
	v, err := intake.Validate(file)
	if err != nil {
		return nil, classify(err)
	}
	return []formatList{{
		Source:   file.Name,
		MIMEType: file.MIMEType,
		Category: v.Category,
		Current:  strings.ToLower(intake.Extension(file.Name)),
		Targets:  catalog.Get(v.Category),
	}}, nil
}

// printTargets writes the targets of l, marking the source's extension.
func printTargets(w io.Writer, l formatList) {
	for _, ext := range l.Targets {
		if ext == l.Current {
			fmt.Fprintf(w, "  %s (current)\n", ext)
			continue
		}
		fmt.Fprintf(w, "  %s\n", ext)
	}
}

func init() {
	formatsCmd.Flags().Bool("json", false, "output as JSON")
	formatsCmd.Flags().Bool("yaml", false, "output as YAML")
	formatsCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(formatsCmd)
}
