// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/mogiioin/adstitch/pkg/dash"
	"github.com/mogiioin/adstitch/pkg/logging"
)

const contentTypeDASH = "application/dash+xml"

// manifestHandlerFunc serves DASH MPDs with ad Periods stitched in.
func (s *Server) manifestHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	sessionID := chi.URLParam(r, "sessionID")
	if err := validateSessionID(sessionID); err != nil {
		writeError(w, log, err)
		return
	}
	originURL, err := s.resolveOrigin(r)
	if err != nil {
		writeError(w, log, err)
		return
	}
	s.touchSession(r.Context(), sessionID, originURL)

	log.Debug("Fetching MPD from origin", "session_id", sessionID, "origin", originURL)
	body, _, err := s.originClient.Get(r.Context(), originURL)
	if err != nil {
		domainMetrics.originFetchErrors.Inc()
		writeError(w, log, newOriginFetchError(err))
		return
	}

	mpd, err := dash.ParseMPD(body)
	if err != nil {
		writeError(w, log, newMpdParseError(err))
		return
	}

	breaks := dash.DetectAdBreaks(mpd)
	if len(breaks) > 0 {
		log.Info("Detected ad breaks in MPD", "session_id", sessionID, "count", len(breaks))
		domainMetrics.adBreaksDetected.Add(float64(len(breaks)))
		adSegments := make([][]ad.Segment, 0, len(breaks))
		for _, brk := range breaks {
			adSegments = append(adSegments,
				s.adProvider.GetAdSegments(r.Context(), brk.Duration, sessionID))
		}
		mpd = dash.InterleaveAds(mpd, breaks, adSegments, sessionID, s.Cfg.BaseURL)
	} else {
		log.Info("No ad breaks detected in MPD", "session_id", sessionID)
	}

	dash.RewriteURLs(mpd, sessionID, s.Cfg.BaseURL, originBase(originURL))

	out, err := dash.SerializeMPD(mpd)
	if err != nil {
		writeError(w, log, &stitchError{kind: errPlaylistModify, err: err})
		return
	}
	w.Header().Set("Content-Type", contentTypeDASH)
	_, _ = w.Write([]byte(out))
}
