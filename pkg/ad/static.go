// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package ad

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// StaticProvider returns a fixed set of ad segments from a configured
// ad source URL. The simplest decisioning strategy.
type StaticProvider struct {
	adSourceURL     string
	segmentDuration float64
	segmentCount    int
}

// NewStaticProvider creates a StaticProvider assuming 10 source
// segments to cycle through.
func NewStaticProvider(adSourceURL string, segmentDuration float64) *StaticProvider {
	return NewStaticProviderWithCount(adSourceURL, segmentDuration, 10)
}

func NewStaticProviderWithCount(adSourceURL string, segmentDuration float64, segmentCount int) *StaticProvider {
	return &StaticProvider{
		adSourceURL:     adSourceURL,
		segmentDuration: segmentDuration,
		segmentCount:    segmentCount,
	}
}

func (s *StaticProvider) GetAdSegments(_ context.Context, duration float64, sessionID string) []Segment {
	numSegments := int(math.Ceil(duration / s.segmentDuration))
	if numSegments < 1 {
		numSegments = 1
	}
	segments := make([]Segment, 0, numSegments)
	for i := 0; i < numSegments; i++ {
		segments = append(segments, Segment{
			URI:      fmt.Sprintf("%s/ad-segment-%d.ts", s.adSourceURL, i),
			Duration: s.segmentDuration,
		})
	}
	slog.Info("StaticProvider: generated ad segments",
		"session_id", sessionID,
		"count", len(segments),
		"break_duration", duration)
	return segments
}

func (s *StaticProvider) ResolveSegmentURL(adName string) (string, bool) {
	segIndex, ok := parseSegmentIndex(adName)
	if !ok {
		return "", false
	}
	// Ad sources use naming like "out_000.ts". Cycle through the
	// available source segments.
	sourceIndex := segIndex % s.segmentCount
	return fmt.Sprintf("%s/out_%03d.ts", s.adSourceURL, sourceIndex), true
}

func (s *StaticProvider) ResolveSegmentWithTracking(adName, _ string) (ResolvedSegment, bool) {
	return ResolveWithoutTracking(s, adName)
}

func (s *StaticProvider) GetAdCreatives(ctx context.Context, duration float64, sessionID string) []Creative {
	return CreativesFromSegments(s.GetAdSegments(ctx, duration, sessionID))
}

// parseSegmentIndex extracts the segment index from an ad name like
// "break-0-seg-3.ts".
func parseSegmentIndex(adName string) (int, bool) {
	name := strings.TrimSuffix(adName, ".ts")
	parts := strings.Split(name, "-")
	if len(parts) < 4 || parts[0] != "break" || parts[2] != "seg" {
		return 0, false
	}
	idx, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, false
	}
	return idx, true
}
