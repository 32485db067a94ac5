// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package intake validates a selected file and classifies it into a media
// category. Validate is pure; Open is the file-chooser analogue that reads
// a file from disk and detects its MIME type.
package intake

import (
	"bytes"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"

	"github.com/pdiddy/mediaconv/internal/apperr"
	"github.com/pdiddy/mediaconv/pkg/types"
)

// supportedPrefixes are the MIME prefixes accepted for conversion.
var supportedPrefixes = []string{"audio/", "video/", "image/"}

// ValidatedFile is a selected file together with the category it was
// classified into.
type ValidatedFile struct {
	File     types.SelectedFile
	Category types.MediaCategory
}

// Validate accepts candidate iff its MIME type starts with audio/, video/,
// or image/, and classifies it by the part before the slash. Any other MIME
// type yields an *apperr.UnsupportedTypeError.
func Validate(candidate types.SelectedFile) (ValidatedFile, error) {
	if isMedia(candidate.MIMEType) {
		category, _, _ := strings.Cut(candidate.MIMEType, "/")
		return ValidatedFile{File: candidate, Category: types.MediaCategory(category)}, nil
	}
	return ValidatedFile{}, &apperr.UnsupportedTypeError{MIMEType: candidate.MIMEType}
}

// Extension returns the last dot-separated segment of name. A name without
// a dot is returned unchanged.
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Open reads the file at path and returns it as a SelectedFile with a
// detected MIME type. The MIME type is empty when detection fails; Validate
// then rejects the file.
func Open(path string) (types.SelectedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SelectedFile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	name := filepath.Base(path)
	return types.SelectedFile{
		Name:     name,
		MIMEType: DetectMIMEType(name, data),
		Data:     data,
	}, nil
}

// extensionOverrides covers media extensions that system MIME tables map
// to something else (".ts" is often a Qt translation file) or miss.
var extensionOverrides = map[string]string{
	".ts":   "video/mp2t",
	".m2ts": "video/mp2t",
	".mts":  "video/mp2t",
	".mkv":  "video/x-matroska",
	".mka":  "audio/x-matroska",
	".opus": "audio/ogg",
}

// DetectMIMEType guesses the media type of a file from its contents and
// name. A media type recognized from the contents wins; audio container
// signatures come next, then a media type implied by the extension. Any
// other recognized type is returned as is so Validate can name it.
func DetectMIMEType(name string, data []byte) string {
	detected := baseType(mimetype.Detect(data).String())
	if isMedia(detected) {
		return detected
	}
	if mt := identifyAudio(data); mt != "" {
		return mt
	}

	byExt := typeByExtension(name)
	if isMedia(byExt) {
		return byExt
	}
	if detected != "" && detected != "application/octet-stream" && len(data) > 0 {
		return detected
	}
	return byExt
}

func typeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if mt, ok := extensionOverrides[ext]; ok {
		return mt
	}
	return baseType(mime.TypeByExtension(ext))
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(mt string) string {
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return mt
}

func isMedia(mt string) bool {
	for _, prefix := range supportedPrefixes {
		if strings.HasPrefix(mt, prefix) {
			return true
		}
	}
	return false
}

// audioTypes maps audio container signatures recognized by tag.Identify to
// MIME types.
var audioTypes = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.M4P:  "audio/mp4",
	tag.ALAC: "audio/mp4",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.DSF:  "audio/dsf",
}

func identifyAudio(data []byte) string {
	if len(data) < 11 {
		return ""
	}
	_, fileType, err := tag.Identify(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return audioTypes[fileType]
}
