// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package ad

import (
	"log/slog"
	"strings"

	"github.com/mogiioin/adstitch/pkg/vast"
)

var hlsMimeTypes = []string{"application/x-mpegURL", "application/vnd.apple.mpegurl"}

var progressiveMimeTypes = []string{"video/mp4", "video/webm", "video/3gpp"}

// standardResolutions are the common broadcast resolutions.
var standardResolutions = map[[2]int]bool{
	{3840, 2160}: true,
	{1920, 1080}: true,
	{1280, 720}:  true,
	{960, 540}:   true,
	{854, 480}:   true,
	{768, 432}:   true,
	{640, 360}:   true,
	{426, 240}:   true,
}

// CheckCreative validates ad creative compatibility and logs warnings.
// Warning-only: never blocks ad insertion.
func CheckCreative(mediaFile *vast.MediaFile, sessionID string) {
	mime := mediaFile.MimeType
	if !isHLSMime(mime) {
		if isProgressiveMime(mime) {
			slog.Warn("Ad conditioning: progressive creative in HLS stream may cause playback issues",
				"session_id", sessionID,
				"mime_type", mime,
				"url", mediaFile.URL)
		} else {
			slog.Warn("Ad conditioning: unknown MIME type for ad creative",
				"session_id", sessionID,
				"mime_type", mime,
				"url", mediaFile.URL)
		}
	}

	if mediaFile.Width > 0 && mediaFile.Height > 0 {
		if !standardResolutions[[2]int{mediaFile.Width, mediaFile.Height}] {
			slog.Warn("Ad conditioning: non-standard resolution may cause visual artifacts",
				"session_id", sessionID,
				"width", mediaFile.Width,
				"height", mediaFile.Height,
				"url", mediaFile.URL)
		}
	}

	if strings.Contains(strings.ToLower(mediaFile.Codec), "vpaid") {
		slog.Warn("Ad conditioning: VPAID creative not supported in SSAI mode",
			"session_id", sessionID,
			"codec", mediaFile.Codec,
			"url", mediaFile.URL)
	}
}

// CheckCreatives checks each creative and returns how many are not
// HLS-compatible.
func CheckCreatives(mediaFiles []*vast.MediaFile, sessionID string) int {
	warnings := 0
	for _, mf := range mediaFiles {
		if !isHLSMime(mf.MimeType) {
			warnings++
		}
		CheckCreative(mf, sessionID)
	}
	return warnings
}

func isHLSMime(mime string) bool {
	for _, t := range hlsMimeTypes {
		if strings.EqualFold(t, mime) {
			return true
		}
	}
	return false
}

func isProgressiveMime(mime string) bool {
	for _, t := range progressiveMimeTypes {
		if strings.EqualFold(t, mime) {
			return true
		}
	}
	return false
}
