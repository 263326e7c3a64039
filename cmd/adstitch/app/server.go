// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mogiioin/adstitch/internal"
	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/mogiioin/adstitch/pkg/logging"
	"github.com/mogiioin/adstitch/pkg/origin"
	"github.com/mogiioin/adstitch/pkg/session"
)

const cleanupInterval = 60 * time.Second

type Server struct {
	Router       *chi.Mux
	StitchRouter *chi.Mux
	Cfg          *ServerConfig
	sessions     session.Store
	adProvider   ad.Provider
	// vastProvider is set when adProvider is VAST-backed, for the
	// background cache sweep.
	vastProvider *ad.VASTProvider
	originClient *origin.Client
	beaconClient *http.Client
	startedAt    time.Time
}

// SetupServer sets up router, middleware, stores, and ad provider,
// given koanf configuration.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(addVersionAndCORSHeaders)
	r.Use(NewPrometheusMiddleware())
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}

	st := chi.NewRouter()
	if cfg.MaxRequests > 0 {
		st.Use(httprate.LimitByIP(cfg.MaxRequests, time.Minute))
	}
	r.Mount("/stitch", st)
	r.Mount("/metrics", promhttp.Handler())

	sessions, err := setupSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Router:       r,
		StitchRouter: st,
		Cfg:          cfg,
		sessions:     sessions,
		originClient: origin.NewClient(),
		beaconClient: &http.Client{Timeout: 5 * time.Second},
		startedAt:    time.Now(),
	}
	server.adProvider, server.vastProvider = setupAdProvider(cfg)

	server.Routes()

	go server.cleanupLoop(ctx)

	slog.Info("adstitch starting",
		"version", internal.GetVersion(),
		"port", cfg.Port,
		"mode", cfg.StitchingMode,
		"session_store", cfg.SessionStore)
	return server, nil
}

func setupSessionStore(ctx context.Context, cfg *ServerConfig) (session.Store, error) {
	ttl := time.Duration(cfg.SessionTTLS) * time.Second
	if cfg.SessionStore == StoreRedis {
		store, err := session.NewRedisStore(ctx, cfg.RedisURL, ttl)
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, nil
	}
	return session.NewMemoryStore(ttl), nil
}

// setupAdProvider selects the provider from configuration. auto picks
// VAST when an endpoint is configured, static otherwise.
func setupAdProvider(cfg *ServerConfig) (ad.Provider, *ad.VASTProvider) {
	useVAST := cfg.AdProvider == ProviderVAST ||
		(cfg.AdProvider == ProviderAuto && cfg.VastEndpoint != "")
	if useVAST {
		v := ad.NewVASTProvider(cfg.VastEndpoint)
		if cfg.SlateURL != "" {
			v = v.WithSlate(ad.NewSlateProvider(cfg.SlateURL, cfg.SlateSegDurS))
		}
		v.RecordVASTRequest = func(result string) {
			domainMetrics.vastRequests.WithLabelValues(result).Inc()
		}
		v.RecordSlateFallback = func() {
			domainMetrics.slateFallbacks.Inc()
		}
		slog.Info("Using VAST ad provider", "endpoint", cfg.VastEndpoint,
			"slate", cfg.SlateURL != "")
		return v, v
	}
	slog.Info("Using static ad provider", "source", cfg.AdSourceURL)
	return ad.NewStaticProvider(cfg.AdSourceURL, cfg.AdSegDurS), nil
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, true, http.StatusOK)
}

func (s *Server) optionsHandlerFunc(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// jsonResponse marshals message and gives a response with code
//
// Don't add any more content after this since Content-Length is set
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, fmt.Sprintf("{message: \"%s\"}", err), http.StatusInternalServerError)
		slog.Error(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(code)
	_, err = w.Write(raw)
	if err != nil {
		slog.Error("could not write HTTP response", "err", err)
	}
}

// cleanupLoop sweeps expired sessions and stale ad-cache entries and
// refreshes the active-sessions gauge every minute.
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sessions.CleanupExpired(ctx); err != nil {
				slog.Warn("Session cleanup failed", "err", err)
			}
			if s.vastProvider != nil {
				maxAge := time.Duration(s.Cfg.SessionTTLS) * time.Second
				if n := s.vastProvider.SweepCache(maxAge); n > 0 {
					slog.Debug("Swept ad creative cache", "removed", n)
				}
			}
			if n, err := s.sessions.Count(ctx); err == nil {
				domainMetrics.activeSessions.Set(float64(n))
			}
		}
	}
}

// validateSessionID checks the session path segment. Ids are opaque
// but must be non-empty and free of path separators.
func validateSessionID(id string) error {
	if id == "" {
		return newInvalidSessionIDError("empty session id")
	}
	if strings.Contains(id, "/") {
		return newInvalidSessionIDError("session id must not contain /")
	}
	return nil
}

// resolveOrigin returns the effective origin for a request. A
// client-supplied origin is SSRF-validated; the configured origin is
// operator-trusted.
func (s *Server) resolveOrigin(r *http.Request) (string, error) {
	if o := r.URL.Query().Get("origin"); o != "" {
		if err := origin.ValidateOrigin(o); err != nil {
			return "", newInvalidOriginError(err)
		}
		return o, nil
	}
	return s.Cfg.OriginURL, nil
}

// originBase strips the last path element: the directory relative
// segment URIs resolve against.
func originBase(originURL string) string {
	if idx := strings.LastIndexByte(originURL, '/'); idx >= 0 {
		return originURL[:idx]
	}
	return originURL
}

// touchSession creates or refreshes the viewer session.
func (s *Server) touchSession(ctx context.Context, sessionID, originURL string) {
	if _, err := s.sessions.GetOrCreate(ctx, sessionID, originURL); err != nil {
		slog.Warn("Session store unavailable", "session_id", sessionID, "err", err)
		return
	}
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		slog.Warn("Session touch failed", "session_id", sessionID, "err", err)
	}
}
