// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package hls

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mogiioin/hls-m3u8/m3u8"
)

// Parse decodes an HLS playlist, attaching the SCTE-35 cue decoders so
// that splice markers survive as raw custom tags on their segments.
func Parse(data []byte) (m3u8.Playlist, m3u8.ListType, error) {
	pl, listType, err := m3u8.DecodeWith(bytes.NewReader(data), false, CueDecoders())
	if err != nil {
		return nil, 0, fmt.Errorf("parse playlist: %w", err)
	}
	if mp, ok := pl.(*m3u8.MediaPlaylist); ok {
		// Emit the full segment list rather than a sliding window.
		_ = mp.SetWinSize(0)
		for _, seg := range mp.GetAllSegments() {
			// The decoder also models cue markers as OATCLS SCTE.
			// The raw custom tags are authoritative; drop the SCTE
			// form so the tags are not written twice.
			if seg.SCTE != nil && hasCueTag(seg) {
				seg.SCTE = nil
			}
		}
	}
	return pl, listType, nil
}

func hasCueTag(seg *m3u8.MediaSegment) bool {
	if seg.Custom == nil {
		return false
	}
	for _, name := range cueTagNames {
		if _, ok := seg.Custom[name]; ok {
			return true
		}
	}
	return false
}

// Serialize encodes a playlist to its textual form.
func Serialize(p m3u8.Playlist) string {
	switch v := p.(type) {
	case *m3u8.MediaPlaylist:
		v.ResetCache()
		return v.Encode().String()
	case *m3u8.MasterPlaylist:
		v.ResetCache()
		return v.Encode().String()
	default:
		return p.String()
	}
}

// RewriteContentURLs points every content segment URI at the stitcher's
// segment proxy. Segments already routed through /stitch/ are
// stitcher-managed ad segments and are left untouched. For absolute
// segment URLs the origin is derived from the URL itself; relative URIs
// use originBase.
func RewriteContentURLs(p *m3u8.MediaPlaylist, sessionID, baseURL, originBase string) {
	for _, seg := range p.GetAllSegments() {
		if strings.Contains(seg.URI, "/stitch/") {
			continue
		}
		name := seg.URI
		origin := originBase
		if strings.HasPrefix(seg.URI, "http") {
			if idx := strings.LastIndexByte(seg.URI, '/'); idx >= 0 {
				origin = seg.URI[:idx]
				name = seg.URI[idx+1:]
			}
		}
		seg.URI = fmt.Sprintf("%s/stitch/%s/segment/%s?origin=%s", baseURL, sessionID, name, origin)
	}
	p.ResetCache()
}

// RewriteMasterURLs routes every variant stream and alternative
// rendition of a master playlist through the stitcher's playlist
// endpoint, carrying the absolute origin URL as a query parameter.
// Audio and subtitle renditions get a track marker so the playlist
// handler can skip video-only processing for them.
func RewriteMasterURLs(p *m3u8.MasterPlaylist, sessionID, baseURL, originBase string) {
	for _, variant := range p.Variants {
		variant.URI = fmt.Sprintf("%s/stitch/%s/playlist.m3u8?origin=%s",
			baseURL, sessionID, absoluteURL(variant.URI, originBase))
	}
	for _, alt := range p.GetAllAlternatives() {
		if alt.URI == "" {
			continue
		}
		alt.URI = fmt.Sprintf("%s/stitch/%s/playlist.m3u8?origin=%s%s",
			baseURL, sessionID, absoluteURL(alt.URI, originBase), trackParam(alt.Type))
	}
	p.ResetCache()
}

func absoluteURL(uri, originBase string) string {
	if strings.HasPrefix(uri, "http") {
		return uri
	}
	return originBase + "/" + uri
}

func trackParam(altType string) string {
	switch strings.ToUpper(altType) {
	case "AUDIO":
		return "&track=audio"
	case "SUBTITLES":
		return "&track=subtitles"
	default:
		return ""
	}
}
