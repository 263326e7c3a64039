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

// SlateProvider fills ad breaks with looping filler content
// ("We'll be right back", channel branding). Used as fallback when
// VAST returns nothing, or standalone when no VAST endpoint exists.
type SlateProvider struct {
	slateURL        string
	segmentDuration float64
	segmentCount    int
}

func NewSlateProvider(slateURL string, segmentDuration float64) *SlateProvider {
	return &SlateProvider{
		slateURL:        slateURL,
		segmentDuration: segmentDuration,
		segmentCount:    10,
	}
}

// FillDuration generates slate segments covering the given duration.
// Slate segments use "slate-seg-N.ts" naming to distinguish them from
// VAST ad segments ("break-N-seg-M.ts").
func (s *SlateProvider) FillDuration(duration float64, sessionID string) []Segment {
	numSegments := int(math.Ceil(duration / s.segmentDuration))
	if numSegments < 1 {
		numSegments = 1
	}
	slog.Info("SlateProvider: generating slate segments",
		"session_id", sessionID,
		"count", numSegments,
		"break_duration", duration)
	segments := make([]Segment, 0, numSegments)
	for i := 0; i < numSegments; i++ {
		segments = append(segments, Segment{
			URI:      fmt.Sprintf("slate-seg-%d.ts", i),
			Duration: s.segmentDuration,
		})
	}
	return segments
}

func (s *SlateProvider) GetAdSegments(_ context.Context, duration float64, sessionID string) []Segment {
	return s.FillDuration(duration, sessionID)
}

func (s *SlateProvider) ResolveSegmentURL(adName string) (string, bool) {
	name, found := strings.CutPrefix(adName, "slate-seg-")
	if !found {
		return "", false
	}
	name, found = strings.CutSuffix(name, ".ts")
	if !found {
		return "", false
	}
	index, err := strconv.Atoi(name)
	if err != nil {
		return "", false
	}
	sourceIndex := index % s.segmentCount
	return fmt.Sprintf("%s/out_%03d.ts", s.slateURL, sourceIndex), true
}

func (s *SlateProvider) ResolveSegmentWithTracking(adName, _ string) (ResolvedSegment, bool) {
	return ResolveWithoutTracking(s, adName)
}

func (s *SlateProvider) GetAdCreatives(ctx context.Context, duration float64, sessionID string) []Creative {
	return CreativesFromSegments(s.GetAdSegments(ctx, duration, sessionID))
}
