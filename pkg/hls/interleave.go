// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package hls

import (
	"fmt"
	"log/slog"

	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/mogiioin/hls-m3u8/m3u8"
)

// InterleaveAds replaces the segments inside each detected ad break with
// stitcher-served ad segments. adSegments[i] holds the ads for breaks[i];
// a break with no ads keeps its original segments. On a break/ads length
// mismatch the playlist is returned unchanged.
//
// The first ad segment of a break and the first content segment after it
// are marked discontinuous so players resynchronize their decoders at
// the splice points.
func InterleaveAds(p *m3u8.MediaPlaylist, breaks []AdBreak, adSegments [][]ad.Segment,
	sessionID, baseURL string) *m3u8.MediaPlaylist {
	if len(breaks) != len(adSegments) {
		slog.Warn("Ad break and segment list mismatch, skipping ad insertion",
			"session_id", sessionID,
			"breaks", len(breaks),
			"segment_lists", len(adSegments))
		return p
	}
	if len(breaks) == 0 {
		return p
	}

	segments := p.GetAllSegments()
	capacity := len(segments)
	for _, ads := range adSegments {
		capacity += len(ads)
	}
	out, err := m3u8.NewMediaPlaylist(0, uint(capacity)+1)
	if err != nil {
		slog.Error("Cannot create stitched playlist", "err", err)
		return p
	}
	out.SetTargetDuration(p.TargetDuration)
	out.SeqNo = p.SeqNo
	out.MediaType = p.MediaType
	out.DiscontinuitySeq = p.DiscontinuitySeq
	out.Custom = p.Custom
	out.Map = p.Map
	out.SetIndependentSegments(p.IndependentSegments())

	cursor := 0
	for b, brk := range breaks {
		ads := adSegments[b]
		if len(ads) == 0 {
			continue
		}
		for ; cursor < brk.StartIndex && cursor < len(segments); cursor++ {
			appendSegment(out, segments[cursor])
		}
		for i, a := range ads {
			appendSegment(out, &m3u8.MediaSegment{
				URI:           fmt.Sprintf("%s/stitch/%s/ad/break-%d-seg-%d.ts", baseURL, sessionID, b, i),
				Duration:      a.Duration,
				Title:         fmt.Sprintf("Ad Break %d", b+1),
				Discontinuity: i == 0,
			})
		}
		if brk.EndIndex > cursor {
			cursor = brk.EndIndex
		}
		if cursor < len(segments) {
			segments[cursor].Discontinuity = true
			appendSegment(out, segments[cursor])
			cursor++
		}
	}
	for ; cursor < len(segments); cursor++ {
		appendSegment(out, segments[cursor])
	}

	if p.Closed {
		out.Closed = true
	}
	return out
}

func appendSegment(p *m3u8.MediaPlaylist, seg *m3u8.MediaSegment) {
	// Capacity is preallocated, so the append cannot overflow.
	if err := p.AppendSegment(seg); err != nil {
		slog.Error("Cannot append segment to stitched playlist", "uri", seg.URI, "err", err)
	}
}
