// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MediaCategory is the top-level class of a selected file, taken from the
// part of its MIME type before the slash. It is derived once at intake.
type MediaCategory string

const (
	CategoryAudio MediaCategory = "audio"
	CategoryVideo MediaCategory = "video"
	CategoryImage MediaCategory = "image"
)

// Valid reports whether c is one of the three supported categories.
func (c MediaCategory) Valid() bool {
	switch c {
	case CategoryAudio, CategoryVideo, CategoryImage:
		return true
	}
	return false
}

// SelectedFile is a file the user picked for conversion. It is not modified
// after creation.
type SelectedFile struct {
	// Name is the base filename, including its extension (e.g. "song.mp3").
	Name string `json:"name" yaml:"name"`

	// MIMEType is the detected media type (e.g. "audio/mpeg").
	MIMEType string `json:"mime_type" yaml:"mime_type"`

	// Data holds the file contents.
	Data []byte `json:"-" yaml:"-"`
}

// ConversionRequest asks for Source to be repackaged under TargetExtension.
type ConversionRequest struct {
	Source          SelectedFile  `json:"source" yaml:"source"`
	Category        MediaCategory `json:"category" yaml:"category"`
	TargetExtension string        `json:"target_extension" yaml:"target_extension"`
}

// ConversionResult holds the converted bytes and the name and MIME type the
// download should carry. It is handed to a download emitter and not kept.
type ConversionResult struct {
	Data     []byte `json:"-" yaml:"-"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Filename string `json:"filename" yaml:"filename"`
}

// ConversionOutcome names how a conversion attempt ended.
type ConversionOutcome string

const (
	OutcomeComplete ConversionOutcome = "complete"
	OutcomeRejected ConversionOutcome = "rejected"
	OutcomeFailed   ConversionOutcome = "failed"
)

// ConversionRecord is the metadata kept about one conversion attempt when
// history is enabled. It never carries file contents.
type ConversionRecord struct {
	ID              string            `json:"id" yaml:"id"`
	SourceName      string            `json:"source_name" yaml:"source_name"`
	SourceMIMEType  string            `json:"source_mime_type" yaml:"source_mime_type"`
	Category        MediaCategory     `json:"category" yaml:"category"`
	TargetExtension string            `json:"target_extension" yaml:"target_extension"`
	OutputName      string            `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	OutputSize      int64             `json:"output_size,omitempty" yaml:"output_size,omitempty"`
	Strategy        Strategy          `json:"strategy" yaml:"strategy"`
	Backend         EngineBackend     `json:"backend" yaml:"backend"`
	Outcome         ConversionOutcome `json:"outcome" yaml:"outcome"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt       time.Time         `json:"started_at" yaml:"started_at"`
	Duration        time.Duration     `json:"duration" yaml:"duration"`
}
