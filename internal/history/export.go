// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mediaconv/pkg/types"
)

const exportLimit = 100000

// ExportEntry is the exported form of a record. Durations are written in
// milliseconds and times in RFC 3339.
type ExportEntry struct {
	ID              string `json:"id" yaml:"id"`
	SourceName      string `json:"source_name" yaml:"source_name"`
	SourceMIMEType  string `json:"source_mime_type,omitempty" yaml:"source_mime_type,omitempty"`
	Category        string `json:"category" yaml:"category"`
	TargetExtension string `json:"target_extension" yaml:"target_extension"`
	OutputName      string `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	OutputSize      int64  `json:"output_size,omitempty" yaml:"output_size,omitempty"`
	Strategy        string `json:"strategy" yaml:"strategy"`
	Backend         string `json:"backend" yaml:"backend"`
	Outcome         string `json:"outcome" yaml:"outcome"`
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt       string `json:"started_at" yaml:"started_at"`
	DurationMS      int64  `json:"duration_ms" yaml:"duration_ms"`
}

// ExportYAML writes the whole history to Dir/export.yaml and returns the
// path.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes the whole history to Dir/export.json and returns the
// path.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	records, err := s.List(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = toExportEntry(r)
	}
	return entries, nil
}

func toExportEntry(r types.ConversionRecord) ExportEntry {
	return ExportEntry{
		ID:              r.ID,
		SourceName:      r.SourceName,
		SourceMIMEType:  r.SourceMIMEType,
		Category:        string(r.Category),
		TargetExtension: r.TargetExtension,
		OutputName:      r.OutputName,
		OutputSize:      r.OutputSize,
		Strategy:        string(r.Strategy),
		Backend:         string(r.Backend),
		Outcome:         string(r.Outcome),
		Error:           r.Error,
		StartedAt:       r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:      r.Duration.Milliseconds(),
	}
}
