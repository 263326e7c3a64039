// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mogiioin/adstitch/pkg/logging"
)

const (
	contentTypeTS    = "video/MP2T"
	segFetchAttempts = 2
	segFetchBackoff  = 500 * time.Millisecond
)

// segmentHandlerFunc proxies content segment bytes from the origin.
// The origin query parameter was put there by the playlist rewrite.
func (s *Server) segmentHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	sessionID := chi.URLParam(r, "sessionID")
	if err := validateSessionID(sessionID); err != nil {
		writeError(w, log, err)
		return
	}
	segmentPath := chi.URLParam(r, "*")
	if segmentPath == "" {
		writeError(w, log, newInternalError("empty segment path"))
		return
	}

	segOrigin := r.URL.Query().Get("origin")
	if segOrigin == "" {
		segOrigin = s.Cfg.OriginURL
	}
	segmentURL := segOrigin + "/" + segmentPath

	log.Debug("Fetching segment from origin",
		"session_id", sessionID, "url", segmentURL)
	body, contentType, err := s.originClient.GetWithRetry(r.Context(), segmentURL,
		segFetchAttempts, segFetchBackoff)
	if err != nil {
		domainMetrics.originFetchErrors.Inc()
		writeError(w, log, newOriginFetchError(err))
		return
	}
	if contentType == "" {
		contentType = contentTypeTS
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}
