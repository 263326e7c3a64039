// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package hls

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mogiioin/hls-m3u8/m3u8"
)

// interstitialClass is the DateRange CLASS that HLS interstitial-aware
// players recognize.
const interstitialClass = "com.apple.hls.interstitial"

// syntheticPDTBase anchors synthetic program-date-time values for
// playlists that carry none of their own.
var syntheticPDTBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// EnsureProgramDateTime assigns synthetic EXT-X-PROGRAM-DATE-TIME values
// to every segment when the playlist has none. Interstitial DateRanges
// need a date anchor to position themselves on the timeline. Playlists
// that already carry any PDT are left untouched.
func EnsureProgramDateTime(p *m3u8.MediaPlaylist) {
	segments := p.GetAllSegments()
	for _, seg := range segments {
		if !seg.ProgramDateTime.IsZero() {
			return
		}
	}
	current := syntheticPDTBase
	for _, seg := range segments {
		seg.ProgramDateTime = current
		current = current.Add(time.Duration(seg.Duration*1000.0) * time.Millisecond)
	}
	p.ResetCache()
}

// InjectInterstitials attaches an interstitial DateRange to the first
// segment of every ad break. The player fetches the ads itself from the
// asset-list endpoint the DateRange points at. Legacy CUE tags are
// stripped afterwards since they would confuse interstitial-aware
// players.
func InjectInterstitials(p *m3u8.MediaPlaylist, breaks []AdBreak, sessionID, baseURL string) {
	segments := p.GetAllSegments()
	for i, brk := range breaks {
		if brk.StartIndex < 0 || brk.StartIndex >= len(segments) {
			continue
		}
		// DURATION goes through XAttrs with minimal float formatting,
		// so 30 writes as DURATION=30 rather than DURATION=30.000.
		dur := strconv.FormatFloat(brk.Duration, 'f', -1, 64)
		assetListURL := fmt.Sprintf("%s/stitch/%s/asset-list/%d?dur=%s",
			baseURL, sessionID, i, dur)
		dr := &m3u8.DateRange{
			ID:        fmt.Sprintf("ad-break-%d", i),
			Class:     interstitialClass,
			StartDate: programDateTimeAt(segments, brk.StartIndex),
			XAttrs: []m3u8.Attribute{
				{Key: "DURATION", Val: dur},
				{Key: "X-ASSET-LIST", Val: `"` + assetListURL + `"`},
				{Key: "X-RESUME-OFFSET", Val: "0"},
				{Key: "X-RESTRICT", Val: `"SKIP,JUMP"`},
			},
		}
		seg := segments[brk.StartIndex]
		seg.SCTE35DateRanges = append(seg.SCTE35DateRanges, dr)
	}
	for _, seg := range segments {
		if seg.Custom != nil {
			for _, name := range cueTagNames {
				delete(seg.Custom, name)
			}
		}
	}
	p.ResetCache()
}

// programDateTimeAt returns the program date-time of segments[idx],
// walking back to the nearest segment with an explicit PDT and
// accumulating durations forward from there.
func programDateTimeAt(segments []*m3u8.MediaSegment, idx int) time.Time {
	anchor := -1
	for i := idx; i >= 0; i-- {
		if !segments[i].ProgramDateTime.IsZero() {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		current := syntheticPDTBase
		for i := 0; i < idx; i++ {
			current = current.Add(time.Duration(segments[i].Duration*1000.0) * time.Millisecond)
		}
		return current
	}
	current := segments[anchor].ProgramDateTime
	for i := anchor; i < idx; i++ {
		current = current.Add(time.Duration(segments[i].Duration*1000.0) * time.Millisecond)
	}
	return current
}
