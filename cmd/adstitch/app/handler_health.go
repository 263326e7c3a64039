// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mogiioin/adstitch/internal"
)

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// healthHandlerFunc reports structured service diagnostics.
func (s *Server) healthHandlerFunc(w http.ResponseWriter, r *http.Request) {
	count, err := s.sessions.Count(r.Context())
	if err != nil {
		slog.Warn("Session count failed", "err", err)
	}
	s.jsonResponse(w, healthResponse{
		Status:         "ok",
		Version:        internal.GetVersion(),
		ActiveSessions: count,
		UptimeSeconds:  int64(time.Since(s.startedAt) / time.Second),
	}, http.StatusOK)
}
