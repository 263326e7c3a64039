// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mogiioin/adstitch/pkg/logging"
)

// assetList is the HLS Interstitials asset-list response of RFC
// 8216bis 6.3, which requires the uppercased key names.
type assetList struct {
	Assets []assetEntry `json:"ASSETS"`
}

type assetEntry struct {
	URI      string  `json:"URI"`
	Duration float64 `json:"DURATION"`
}

// assetListHandlerFunc serves the SGAI asset list. Players fetch it
// when they hit an interstitial DateRange with X-ASSET-LIST.
func (s *Server) assetListHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	sessionID := chi.URLParam(r, "sessionID")
	if err := validateSessionID(sessionID); err != nil {
		writeError(w, log, err)
		return
	}
	breakID := chi.URLParam(r, "breakID")

	duration := 30.0
	if d := r.URL.Query().Get("dur"); d != "" {
		if parsed, err := strconv.ParseFloat(d, 64); err == nil {
			duration = parsed
		}
	}

	creatives := s.adProvider.GetAdCreatives(r.Context(), duration, sessionID)
	assets := make([]assetEntry, 0, len(creatives))
	for _, c := range creatives {
		assets = append(assets, assetEntry{URI: c.URI, Duration: c.Duration})
	}

	log.Info("Serving asset list", "session_id", sessionID,
		"break_id", breakID, "assets", len(assets), "duration", duration)
	s.jsonResponse(w, assetList{Assets: assets}, http.StatusOK)
}
