// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dash

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	m "github.com/Eyevinn/dash-mpd/mpd"
	"github.com/mogiioin/adstitch/pkg/ad"
)

// fallbackBandwidth is used when the content Period carries no
// Representation to borrow a bandwidth from.
const fallbackBandwidth = 500_000

// InterleaveAds inserts one ad Period per detected break, directly after
// the Period that carried the SCTE-35 signal. Breaks are walked in
// reverse order so insertions do not shift the indices of breaks still
// to be processed. adSegments[i] holds the ads for breaks[i]; a break
// with no ads is skipped. On a break/ads length mismatch the MPD is
// returned unchanged.
func InterleaveAds(mpd *m.MPD, breaks []AdBreak, adSegments [][]ad.Segment,
	sessionID, baseURL string) *m.MPD {
	if len(breaks) != len(adSegments) {
		slog.Warn("Ad break and segment list mismatch, skipping ad insertion",
			"session_id", sessionID,
			"breaks", len(breaks),
			"segment_lists", len(adSegments))
		return mpd
	}
	for i := len(breaks) - 1; i >= 0; i-- {
		ads := adSegments[i]
		if len(ads) == 0 {
			continue
		}
		adPeriod := buildAdPeriod(mpd, breaks[i], i, ads, sessionID, baseURL)
		pos := breaks[i].PeriodIndex + 1
		if pos > len(mpd.Periods) {
			pos = len(mpd.Periods)
		}
		mpd.Periods = slices.Insert(mpd.Periods, pos, adPeriod)
	}
	return mpd
}

// buildAdPeriod creates the Period for one ad break. It mirrors the
// content Period's AdaptationSet structure (content type, mime type and
// language) so players keep one timeline per track. All mirrored
// AdaptationSets share the same SegmentURL list: muxed ad creatives
// carry every track and the player demuxes what it needs.
func buildAdPeriod(mpd *m.MPD, brk AdBreak, breakIdx int, ads []ad.Segment,
	sessionID, baseURL string) *m.Period {
	total := 0.0
	for _, a := range ads {
		total += a.Duration
	}

	period := m.NewPeriod()
	period.Id = fmt.Sprintf("ad-%d", breakIdx)
	period.Duration = m.Ptr(m.Duration(total * float64(time.Second)))

	segmentURLs := make([]*m.SegmentURLType, 0, len(ads))
	for j := range ads {
		segmentURLs = append(segmentURLs, &m.SegmentURLType{
			Media: m.AnyURI(fmt.Sprintf("%s/stitch/%s/ad/break-%d-seg-%d.ts",
				baseURL, sessionID, breakIdx, j)),
		})
	}

	var contentSets []*m.AdaptationSetType
	if brk.PeriodIndex >= 0 && brk.PeriodIndex < len(mpd.Periods) {
		contentSets = mpd.Periods[brk.PeriodIndex].AdaptationSets
	}

	if len(contentSets) == 0 {
		as := m.NewAdaptationSet()
		as.Id = m.Ptr(uint32(1))
		as.ContentType = "video"
		as.MimeType = "video/mp4"
		as.AppendRepresentation(adRepresentation(breakIdx, 0, fallbackBandwidth, segmentURLs))
		period.AppendAdaptationSet(as)
		return period
	}

	for k, src := range contentSets {
		as := m.NewAdaptationSet()
		as.Id = m.Ptr(uint32(k + 1))
		as.ContentType = src.ContentType
		as.MimeType = src.MimeType
		as.Lang = src.Lang
		bandwidth := uint32(fallbackBandwidth)
		if len(src.Representations) > 0 && src.Representations[0].Bandwidth > 0 {
			bandwidth = src.Representations[0].Bandwidth
		}
		as.AppendRepresentation(adRepresentation(breakIdx, k, bandwidth, segmentURLs))
		period.AppendAdaptationSet(as)
	}
	return period
}

func adRepresentation(breakIdx, setIdx int, bandwidth uint32,
	segmentURLs []*m.SegmentURLType) *m.RepresentationType {
	rep := m.NewRepresentation()
	rep.Id = fmt.Sprintf("ad-%d-%d", breakIdx, setIdx)
	rep.Bandwidth = bandwidth
	rep.SegmentList = &m.SegmentListType{SegmentURL: segmentURLs}
	return rep
}
