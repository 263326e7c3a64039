// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/mogiioin/adstitch/pkg/logging"
	"github.com/mogiioin/adstitch/pkg/tracking"
)

// adHandlerFunc proxies ad segment bytes from the ad source. The ad
// name encodes break and segment index ("break-0-seg-3.ts"); the
// provider resolves it to the source URL. Tracking beacons fire in the
// background: impressions on the first segment of a creative, quartile
// events as playback progresses through the segments.
func (s *Server) adHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	sessionID := chi.URLParam(r, "sessionID")
	if err := validateSessionID(sessionID); err != nil {
		writeError(w, log, err)
		return
	}
	adName := chi.URLParam(r, "adName")

	resolved, ok := s.adProvider.ResolveSegmentWithTracking(adName, sessionID)
	if !ok {
		writeError(w, log, newInternalError("failed to resolve ad segment URL for "+adName))
		return
	}

	log.Debug("Fetching ad segment", "session_id", sessionID,
		"ad_name", adName, "url", resolved.URL)
	body, _, err := s.originClient.GetWithRetry(r.Context(), resolved.URL,
		segFetchAttempts, segFetchBackoff)
	if err != nil {
		domainMetrics.originFetchErrors.Inc()
		if resolved.Tracking != nil && resolved.Tracking.ErrorURL != "" {
			tracking.FireError(s.beaconClient, resolved.Tracking.ErrorURL, recordBeacon)
		}
		writeError(w, log, newOriginFetchError(err))
		return
	}

	s.fireTracking(resolved.Tracking)

	w.Header().Set("Content-Type", contentTypeTS)
	_, _ = w.Write(body)
}

func (s *Server) fireTracking(ti *ad.TrackingInfo) {
	if ti == nil {
		return
	}
	if ti.SegmentIndex == 0 {
		tracking.FireImpressions(s.beaconClient, ti.ImpressionURLs, recordBeacon)
	}
	events := tracking.EventsForSegment(ti.SegmentIndex, ti.TotalSegments, ti.TrackingEvents)
	for _, ev := range events {
		tracking.FireBeacon(s.beaconClient, ev.URL, ev.Event, recordBeacon)
	}
}
