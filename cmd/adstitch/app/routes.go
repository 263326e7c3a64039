// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"github.com/mogiioin/adstitch/pkg/logging"
)

// Routes defines dispatches for all routes.
func (s *Server) Routes() {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.MethodFunc("GET", "/health", s.healthHandlerFunc)
	s.Router.MethodFunc("GET", "/demo/playlist.m3u8", s.demoPlaylistHandlerFunc)
	s.Router.MethodFunc("GET", "/demo/manifest.mpd", s.demoManifestHandlerFunc)
	s.Router.MethodFunc("OPTIONS", "/*", s.optionsHandlerFunc)
	s.Router.Route("/api", createRouteAPI(s))
	// StitchRouter is mounted at /stitch
	s.StitchRouter.MethodFunc("GET", "/{sessionID}/playlist.m3u8", s.playlistHandlerFunc)
	s.StitchRouter.MethodFunc("GET", "/{sessionID}/manifest.mpd", s.manifestHandlerFunc)
	s.StitchRouter.MethodFunc("GET", "/{sessionID}/segment/*", s.segmentHandlerFunc)
	s.StitchRouter.MethodFunc("GET", "/{sessionID}/ad/{adName}", s.adHandlerFunc)
	s.StitchRouter.MethodFunc("GET", "/{sessionID}/asset-list/{breakID}", s.assetListHandlerFunc)
	s.StitchRouter.MethodFunc("OPTIONS", "/*", s.optionsHandlerFunc)
}
