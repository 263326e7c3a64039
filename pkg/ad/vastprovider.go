// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package ad

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mogiioin/adstitch/pkg/origin"
	"github.com/mogiioin/adstitch/pkg/vast"
)

const (
	maxWrapperDepth  = 5
	vastTimeout      = 2 * time.Second
	vastFetchRetries = 2
	vastRetryBackoff = 500 * time.Millisecond
)

// VASTProvider fetches ads from a VAST endpoint on each ad break,
// follows wrapper chains, and caches the resolved creatives for
// segment URL resolution.
type VASTProvider struct {
	endpoint string
	client   *origin.Client
	cache    *creativeCache
	slate    *SlateProvider

	// Metrics hooks, set by the server. Nil-safe.
	RecordVASTRequest   func(result string)
	RecordSlateFallback func()
}

// NewVASTProvider creates a provider for the given VAST endpoint URL.
// The endpoint may carry [DURATION] and [CACHEBUSTING] macros.
func NewVASTProvider(endpoint string) *VASTProvider {
	return &VASTProvider{
		endpoint: endpoint,
		client:   origin.NewClientWithTimeout(vastTimeout),
		cache:    newCreativeCache(),
	}
}

// WithSlate configures slate fallback for empty or failed VAST responses.
func (v *VASTProvider) WithSlate(slate *SlateProvider) *VASTProvider {
	v.slate = slate
	return v
}

// SweepCache drops cached creatives older than maxAge.
// Called periodically by the server's background cleanup loop.
func (v *VASTProvider) SweepCache(maxAge time.Duration) int {
	return v.cache.sweep(maxAge)
}

// resolveEndpoint replaces VAST macros in the endpoint URL.
func (v *VASTProvider) resolveEndpoint(duration float64) string {
	timestamp := time.Now().UnixMilli()
	url := strings.ReplaceAll(v.endpoint, "[DURATION]", fmt.Sprintf("%d", int(duration)))
	return strings.ReplaceAll(url, "[CACHEBUSTING]", fmt.Sprintf("%d", timestamp))
}

// fetchedCreative is one stitched creative extracted from a VAST
// response, with the tracking metadata accumulated along the wrapper
// chain.
type fetchedCreative struct {
	url            string
	duration       float64
	isHLS          bool
	impressionURLs []string
	trackingEvents []vast.TrackingEvent
	errorURL       string
}

// fetchVAST fetches and parses the VAST document at url, following
// wrapper redirects up to maxWrapperDepth. Wrapper-level impressions
// and tracking events are merged into the wrapped creatives.
// Returns ok=false when the fetch or parse failed.
func (v *VASTProvider) fetchVAST(ctx context.Context, url string, depth int, sessionID string) ([]fetchedCreative, bool) {
	if depth > maxWrapperDepth {
		slog.Warn("VAST wrapper chain exceeded max depth", "max_depth", maxWrapperDepth)
		return nil, false
	}

	body, _, err := v.client.GetWithRetry(ctx, url, vastFetchRetries, vastRetryBackoff)
	if err != nil {
		slog.Error("VAST request failed", "err", err, "url", url)
		return nil, false
	}

	resp, err := vast.Parse(string(body))
	if err != nil {
		slog.Error("Failed to parse VAST XML", "err", err)
		return nil, false
	}

	var creatives []fetchedCreative
	for _, adEntry := range resp.Ads {
		switch {
		case adEntry.InLine != nil:
			in := adEntry.InLine
			for _, creative := range in.Creatives {
				if creative.Linear == nil {
					continue
				}
				mediaFile := vast.SelectBestMediaFile(creative.Linear.MediaFiles)
				if mediaFile == nil {
					continue
				}
				// Ad conditioning: warnings only, never blocks insertion
				CheckCreative(mediaFile, sessionID)
				creatives = append(creatives, fetchedCreative{
					url:            mediaFile.URL,
					duration:       creative.Linear.Duration,
					isHLS:          mediaFile.MimeType == "application/x-mpegURL",
					impressionURLs: in.ImpressionURLs,
					trackingEvents: creative.Linear.TrackingEvents,
					errorURL:       in.ErrorURL,
				})
			}
		case adEntry.Wrapper != nil:
			w := adEntry.Wrapper
			wrapped, ok := v.fetchVAST(ctx, w.AdTagURI, depth+1, sessionID)
			if !ok {
				continue
			}
			for i := range wrapped {
				wrapped[i].impressionURLs = append(wrapped[i].impressionURLs, w.ImpressionURLs...)
				wrapped[i].trackingEvents = append(wrapped[i].trackingEvents, w.TrackingEvents...)
			}
			creatives = append(creatives, wrapped...)
		}
	}
	return creatives, true
}

func (v *VASTProvider) GetAdSegments(ctx context.Context, duration float64, sessionID string) []Segment {
	url := v.resolveEndpoint(duration)
	slog.Info("VASTProvider: fetching VAST",
		"session_id", sessionID,
		"break_duration", duration,
		"url", url)

	creatives, ok := v.fetchVAST(ctx, url, 0, sessionID)
	switch {
	case ok && len(creatives) > 0:
		v.recordVAST("success")
	case ok:
		v.recordVAST("empty")
		return v.fallback(duration, sessionID, "empty VAST response")
	default:
		v.recordVAST("error")
		return v.fallback(duration, sessionID, "VAST request failed")
	}

	segments := make([]Segment, 0, len(creatives))
	breakIdx := 0 // TODO: track break index per session
	for segIdx, creative := range creatives {
		adName := fmt.Sprintf("break-%d-seg-%d.ts", breakIdx, segIdx)
		tracking := &TrackingInfo{
			ImpressionURLs: creative.impressionURLs,
			TrackingEvents: creative.trackingEvents,
			ErrorURL:       creative.errorURL,
			TotalSegments:  len(creatives),
			SegmentIndex:   segIdx,
		}
		v.cache.put(cacheKey(sessionID, adName), resolvedCreative{
			url:      creative.url,
			duration: creative.duration,
			isHLS:    creative.isHLS,
			tracking: tracking,
		})
		segments = append(segments, Segment{
			URI:      adName,
			Duration: creative.duration,
			Tracking: tracking,
		})
	}
	slog.Info("VASTProvider: resolved ad segments",
		"session_id", sessionID,
		"count", len(segments))
	return segments
}

func (v *VASTProvider) ResolveSegmentURL(adName string) (string, bool) {
	if strings.HasPrefix(adName, "slate-seg-") {
		if v.slate != nil {
			return v.slate.ResolveSegmentURL(adName)
		}
		slog.Warn("VASTProvider: slate segment requested but no slate configured")
		return "", false
	}
	rc, ok := v.cache.lookupBySuffix(adName)
	if !ok {
		slog.Warn("VASTProvider: no cached creative found", "ad_name", adName)
		return "", false
	}
	return rc.url, true
}

func (v *VASTProvider) ResolveSegmentWithTracking(adName, _ string) (ResolvedSegment, bool) {
	if strings.HasPrefix(adName, "slate-seg-") {
		return ResolveWithoutTracking(v, adName)
	}
	rc, ok := v.cache.lookupBySuffix(adName)
	if !ok {
		slog.Warn("VASTProvider: no cached creative found", "ad_name", adName)
		return ResolvedSegment{}, false
	}
	return ResolvedSegment{URL: rc.url, Tracking: rc.tracking}, true
}

// GetAdCreatives returns creative-level URLs for the SGAI asset list.
// Unlike the SSAI path, these point at the ad CDN directly so the
// player fetches the creative itself.
func (v *VASTProvider) GetAdCreatives(ctx context.Context, duration float64, sessionID string) []Creative {
	url := v.resolveEndpoint(duration)
	creatives, ok := v.fetchVAST(ctx, url, 0, sessionID)
	if !ok || len(creatives) == 0 {
		if !ok {
			v.recordVAST("error")
		} else {
			v.recordVAST("empty")
		}
		if v.slate != nil {
			v.recordSlate()
			return CreativesFromSegments(v.slate.FillDuration(duration, sessionID))
		}
		return nil
	}
	v.recordVAST("success")
	out := make([]Creative, 0, len(creatives))
	for _, c := range creatives {
		out = append(out, Creative{URI: c.url, Duration: c.duration})
	}
	return out
}

func (v *VASTProvider) fallback(duration float64, sessionID, reason string) []Segment {
	if v.slate != nil {
		slog.Warn("VASTProvider: falling back to slate",
			"session_id", sessionID,
			"reason", reason)
		v.recordSlate()
		return v.slate.FillDuration(duration, sessionID)
	}
	slog.Warn("VASTProvider: no ads and no slate configured",
		"session_id", sessionID,
		"reason", reason)
	return nil
}

func (v *VASTProvider) recordVAST(result string) {
	if v.RecordVASTRequest != nil {
		v.RecordVASTRequest(result)
	}
}

func (v *VASTProvider) recordSlate() {
	if v.RecordSlateFallback != nil {
		v.RecordSlateFallback()
	}
}

func cacheKey(sessionID, adName string) string {
	return sessionID + ":" + adName
}
