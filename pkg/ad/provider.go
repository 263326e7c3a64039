// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package ad provides ad decisioning for ad breaks: a static provider,
// a slate filler, and a VAST client with wrapper chasing.
package ad

import (
	"context"

	"github.com/mogiioin/adstitch/pkg/vast"
)

// Segment is a single ad segment filling part of an ad break.
type Segment struct {
	// URI of the ad segment. For VAST ads this is the break-relative
	// name (e.g. "break-0-seg-1.ts"), for static ads a full URL.
	URI string
	// Duration in seconds.
	Duration float64
	// Tracking metadata. Only set for VAST-sourced ads.
	Tracking *TrackingInfo
}

// TrackingInfo is the tracking metadata of a single ad creative.
type TrackingInfo struct {
	// ImpressionURLs fire when the first segment of the ad is served.
	ImpressionURLs []string
	// TrackingEvents are quartile/progress beacons.
	TrackingEvents []vast.TrackingEvent
	// ErrorURL fires on ad failures.
	ErrorURL string
	// TotalSegments in this ad, for quartile calculation.
	TotalSegments int
	// SegmentIndex of this segment within the ad.
	SegmentIndex int
}

// ResolvedSegment is the source URL of an ad segment plus tracking context.
type ResolvedSegment struct {
	URL      string
	Tracking *TrackingInfo
}

// Creative is a complete ad unit for SGAI asset lists. Unlike Segment
// it references an HLS playlist or MP4 URL, not an individual segment.
type Creative struct {
	URI      string
	Duration float64
}

// Provider supplies ad content for ad breaks. Implementations differ in
// decisioning strategy (static source, slate loop, VAST endpoint).
type Provider interface {
	// GetAdSegments returns segments to fill an ad break of the given
	// duration. The total may be shorter or slightly longer.
	GetAdSegments(ctx context.Context, duration float64, sessionID string) []Segment

	// ResolveSegmentURL maps an ad segment identifier from the playlist
	// (e.g. "break-0-seg-3.ts") to the URL to fetch it from.
	ResolveSegmentURL(adName string) (string, bool)

	// ResolveSegmentWithTracking is ResolveSegmentURL plus tracking
	// context where the provider has it.
	ResolveSegmentWithTracking(adName, sessionID string) (ResolvedSegment, bool)

	// GetAdCreatives returns complete ad units for SGAI asset lists.
	GetAdCreatives(ctx context.Context, duration float64, sessionID string) []Creative
}

// ResolveWithoutTracking adapts ResolveSegmentURL for providers that
// carry no tracking metadata.
func ResolveWithoutTracking(p Provider, adName string) (ResolvedSegment, bool) {
	url, ok := p.ResolveSegmentURL(adName)
	if !ok {
		return ResolvedSegment{}, false
	}
	return ResolvedSegment{URL: url}, true
}

// CreativesFromSegments adapts an SSAI segment list into creatives,
// one creative per segment.
func CreativesFromSegments(segments []Segment) []Creative {
	creatives := make([]Creative, 0, len(segments))
	for _, seg := range segments {
		creatives = append(creatives, Creative{URI: seg.URI, Duration: seg.Duration})
	}
	return creatives
}
