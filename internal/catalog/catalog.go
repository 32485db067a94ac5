// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog lists the target extensions offered for each media
// category. The table is fixed and read-only; list order is presentation
// order and carries no ranking.
package catalog

import (
	"slices"

	"github.com/pdiddy/mediaconv/pkg/types"
)

// extensions maps each category to its candidate target extensions. The
// video list ends with mp3 to allow extracting the audio track.
var extensions = map[types.MediaCategory][]string{
	types.CategoryAudio: {"mp3", "wav", "ogg", "flac", "aac", "wma", "m4a", "opus"},
	types.CategoryVideo: {"mp4", "webm", "ogg", "mov", "wmv", "flv", "avi", "mkv", "mp3"},
	types.CategoryImage: {"png", "jpg", "jpeg", "gif", "webp", "svg", "bmp"},
}

// Get returns a copy of the target extensions for c, or an empty list for an
// unknown category.
func Get(c types.MediaCategory) []string {
	return slices.Clone(extensions[c])
}

// Contains reports whether ext is offered for c.
func Contains(c types.MediaCategory, ext string) bool {
	return slices.Contains(extensions[c], ext)
}

// Categories returns the supported categories in a stable order.
func Categories() []types.MediaCategory {
	return []types.MediaCategory{types.CategoryAudio, types.CategoryVideo, types.CategoryImage}
}
