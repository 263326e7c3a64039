// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package dash rewrites and stitches DASH MPDs. It uses the Eyevinn
// dash-mpd model and follows the hierarchical BaseURL resolution of
// ISO/IEC 23009-1 Section 5.6.5 when deriving segment origins.
package dash

import (
	"bytes"
	"fmt"
	"strings"

	m "github.com/Eyevinn/dash-mpd/mpd"
)

// ParseMPD parses a DASH manifest.
func ParseMPD(data []byte) (*m.MPD, error) {
	mpd, err := m.ReadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse mpd: %w", err)
	}
	return mpd, nil
}

// SerializeMPD writes an MPD as indented XML with header.
func SerializeMPD(mpd *m.MPD) (string, error) {
	var buf bytes.Buffer
	if _, err := mpd.Write(&buf, "  ", true); err != nil {
		return "", fmt.Errorf("write mpd: %w", err)
	}
	return buf.String(), nil
}

// composeURL resolves a possibly relative BaseURL entry against its
// parent base. An absolute entry replaces the parent entirely.
func composeURL(base, relative string) string {
	if relative == "" {
		return base
	}
	if strings.HasPrefix(relative, "http") {
		return relative
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(relative, "/")
}

// RewriteURLs routes all segment URLs of an MPD through the stitcher's
// segment proxy. Effective bases are resolved hierarchically
// (MPD, Period, AdaptationSet, Representation) and every BaseURL list is
// cleared once consumed, so the rewritten SegmentTemplates carry
// absolute proxy URLs with the segment origin as a query parameter.
// Template macros like $Number$ stay verbatim in the path; expanding
// them remains the player's concern.
func RewriteURLs(mpd *m.MPD, sessionID, baseURL, originBase string) {
	mpdBase := originBase
	if len(mpd.BaseURL) > 0 {
		mpdBase = composeURL(originBase, string(mpd.BaseURL[0].Value))
	}
	mpd.BaseURL = nil

	for _, period := range mpd.Periods {
		periodBase := mpdBase
		if len(period.BaseURLs) > 0 {
			periodBase = composeURL(mpdBase, string(period.BaseURLs[0].Value))
		}
		period.BaseURLs = nil

		for _, as := range period.AdaptationSets {
			asBase := periodBase
			if len(as.BaseURLs) > 0 {
				asBase = composeURL(periodBase, string(as.BaseURLs[0].Value))
			}
			as.BaseURLs = nil

			rewriteSegmentTemplate(as.SegmentTemplate, sessionID, baseURL, asBase)

			for _, rep := range as.Representations {
				repOrigin := asBase
				if len(rep.BaseURLs) > 0 {
					repOrigin = composeURL(asBase, string(rep.BaseURLs[0].Value))
				}
				rep.BaseURLs = nil

				rewriteSegmentTemplate(rep.SegmentTemplate, sessionID, baseURL, repOrigin)
			}
		}
	}
}

// rewriteSegmentTemplate points the template's media and initialization
// URLs at the segment proxy. URLs already routed through /stitch/ are
// left alone so repeated rewrites stay idempotent.
func rewriteSegmentTemplate(st *m.SegmentTemplateType, sessionID, baseURL, origin string) {
	if st == nil {
		return
	}
	if st.Initialization != "" && !strings.Contains(st.Initialization, "/stitch/") {
		st.Initialization = fmt.Sprintf("%s/stitch/%s/segment/%s?origin=%s",
			baseURL, sessionID, st.Initialization, origin)
	}
	if st.Media != "" && !strings.Contains(st.Media, "/stitch/") {
		st.Media = fmt.Sprintf("%s/stitch/%s/segment/%s?origin=%s",
			baseURL, sessionID, st.Media, origin)
	}
}
