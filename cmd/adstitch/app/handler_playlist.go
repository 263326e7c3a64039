// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mogiioin/hls-m3u8/m3u8"

	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/mogiioin/adstitch/pkg/hls"
	"github.com/mogiioin/adstitch/pkg/logging"
)

const contentTypeHLS = "application/vnd.apple.mpegurl"

// playlistHandlerFunc serves HLS playlists with ads stitched in.
//
// Master playlists only get their variant and rendition URLs rewritten.
// Media playlists run the full pipeline: cue detection, SSAI
// interleaving or SGAI interstitial injection, and content URL
// rewriting so segment traffic flows through the stitcher.
func (s *Server) playlistHandlerFunc(w http.ResponseWriter, r *http.Request) {
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

	log.Debug("Fetching playlist from origin", "session_id", sessionID, "origin", originURL)
	body, _, err := s.originClient.Get(r.Context(), originURL)
	if err != nil {
		domainMetrics.originFetchErrors.Inc()
		writeError(w, log, newOriginFetchError(err))
		return
	}

	p, _, err := hls.Parse(body)
	if err != nil {
		writeError(w, log, newPlaylistParseError(err))
		return
	}

	track := r.URL.Query().Get("track")
	switch track {
	case "audio", "subtitles":
	default:
		track = "video"
	}

	out := s.processPlaylist(r.Context(), log, p, sessionID, originBase(originURL), track)

	w.Header().Set("Content-Type", contentTypeHLS)
	_, _ = w.Write([]byte(hls.Serialize(out)))
}

// processPlaylist runs the ad insertion pipeline on a parsed playlist.
func (s *Server) processPlaylist(ctx context.Context, log *slog.Logger, p m3u8.Playlist,
	sessionID, contentBase, track string) m3u8.Playlist {
	baseURL := s.Cfg.BaseURL

	switch pl := p.(type) {
	case *m3u8.MasterPlaylist:
		log.Info("Processing master playlist, rewriting variant URLs",
			"session_id", sessionID)
		hls.RewriteMasterURLs(pl, sessionID, baseURL, contentBase)
		return pl
	case *m3u8.MediaPlaylist:
		if track == "subtitles" {
			log.Info("Subtitle track, skipping ad insertion", "session_id", sessionID)
			hls.RewriteContentURLs(pl, sessionID, baseURL, contentBase)
			return pl
		}
		out := s.insertAds(ctx, log, pl, sessionID, track)
		hls.RewriteContentURLs(out, sessionID, baseURL, contentBase)
		return out
	default:
		return p
	}
}

func (s *Server) insertAds(ctx context.Context, log *slog.Logger, mp *m3u8.MediaPlaylist,
	sessionID, track string) *m3u8.MediaPlaylist {
	breaks := hls.DetectAdBreaks(mp)
	if len(breaks) == 0 {
		if track == "audio" {
			// Muxed ad segments carry audio, but without CUE anchors
			// there is no place in the audio timeline to insert them.
			log.Info("Audio track has no CUE markers, passing through",
				"session_id", sessionID)
		} else {
			log.Info("No ad breaks detected in playlist", "session_id", sessionID)
		}
		return mp
	}

	log.Info("Detected ad breaks", "session_id", sessionID,
		"count", len(breaks), "track", track)
	domainMetrics.adBreaksDetected.Add(float64(len(breaks)))

	switch s.Cfg.StitchingMode {
	case ModeSGAI:
		hls.EnsureProgramDateTime(mp)
		hls.InjectInterstitials(mp, breaks, sessionID, s.Cfg.BaseURL)
		domainMetrics.interstitialsInjected.Add(float64(len(breaks)))
		return mp
	default: // SSAI
		adSegments := make([][]ad.Segment, 0, len(breaks))
		for _, brk := range breaks {
			adSegments = append(adSegments,
				s.adProvider.GetAdSegments(ctx, brk.Duration, sessionID))
		}
		return hls.InterleaveAds(mp, breaks, adSegments, sessionID, s.Cfg.BaseURL)
	}
}
