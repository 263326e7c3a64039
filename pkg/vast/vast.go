// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package vast parses VAST ad responses (2.0-4.x subset) and selects
// media files suitable for stitching.
package vast

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Response is a parsed VAST document.
type Response struct {
	Version string
	Ads     []Ad
}

// Ad is a single <Ad>. Exactly one of InLine and Wrapper is set.
type Ad struct {
	ID      string
	InLine  *InLine
	Wrapper *Wrapper
}

// InLine carries actual creative content.
type InLine struct {
	AdSystem       string
	AdTitle        string
	Creatives      []Creative
	ImpressionURLs []string
	ErrorURL       string
}

// Wrapper redirects to another VAST document.
type Wrapper struct {
	AdTagURI       string
	ImpressionURLs []string
	TrackingEvents []TrackingEvent
}

// Creative holds linear video content.
type Creative struct {
	ID     string
	Linear *Linear
}

// Linear is video ad content with its media files and tracking.
type Linear struct {
	Duration       float64
	MediaFiles     []MediaFile
	TrackingEvents []TrackingEvent
}

// MediaFile is one encoding of an ad creative.
type MediaFile struct {
	URL      string
	Delivery string
	MimeType string
	Width    int
	Height   int
	Bitrate  int
	Codec    string
}

// TrackingEvent is a playback reporting beacon.
type TrackingEvent struct {
	Event string
	URL   string
}

// Parse parses a VAST XML document.
func Parse(xml string) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("VAST XML parse error: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "VAST" {
		return nil, fmt.Errorf("VAST XML parse error: no VAST root element")
	}
	resp := Response{Version: root.SelectAttrValue("version", "")}
	for _, adEl := range root.SelectElements("Ad") {
		ad := Ad{ID: adEl.SelectAttrValue("id", "")}
		if inEl := adEl.SelectElement("InLine"); inEl != nil {
			ad.InLine = parseInLine(inEl)
		} else if wrapEl := adEl.SelectElement("Wrapper"); wrapEl != nil {
			ad.Wrapper = parseWrapper(wrapEl)
		} else {
			continue
		}
		resp.Ads = append(resp.Ads, ad)
	}
	if len(resp.Ads) == 0 {
		slog.Info("VAST response contains no ads (empty response)")
	} else {
		slog.Info("Parsed ads from VAST response", "count", len(resp.Ads), "version", resp.Version)
	}
	return &resp, nil
}

func parseInLine(el *etree.Element) *InLine {
	in := InLine{
		AdSystem: elementText(el, "AdSystem"),
		AdTitle:  elementText(el, "AdTitle"),
		ErrorURL: elementText(el, "Error"),
	}
	for _, imp := range el.SelectElements("Impression") {
		if url := strings.TrimSpace(imp.Text()); url != "" {
			in.ImpressionURLs = append(in.ImpressionURLs, url)
		}
	}
	if creativesEl := el.SelectElement("Creatives"); creativesEl != nil {
		for _, cEl := range creativesEl.SelectElements("Creative") {
			c := Creative{ID: cEl.SelectAttrValue("id", "")}
			if linEl := cEl.SelectElement("Linear"); linEl != nil {
				c.Linear = parseLinear(linEl)
			}
			in.Creatives = append(in.Creatives, c)
		}
	}
	return &in
}

func parseWrapper(el *etree.Element) *Wrapper {
	w := Wrapper{AdTagURI: elementText(el, "VASTAdTagURI")}
	for _, imp := range el.SelectElements("Impression") {
		if url := strings.TrimSpace(imp.Text()); url != "" {
			w.ImpressionURLs = append(w.ImpressionURLs, url)
		}
	}
	if teEl := el.SelectElement("TrackingEvents"); teEl != nil {
		w.TrackingEvents = parseTrackingEvents(teEl)
	}
	return &w
}

func parseLinear(el *etree.Element) *Linear {
	lin := Linear{Duration: ParseDuration(elementText(el, "Duration"))}
	if mfsEl := el.SelectElement("MediaFiles"); mfsEl != nil {
		for _, mfEl := range mfsEl.SelectElements("MediaFile") {
			lin.MediaFiles = append(lin.MediaFiles, MediaFile{
				URL:      strings.TrimSpace(mfEl.Text()),
				Delivery: mfEl.SelectAttrValue("delivery", ""),
				MimeType: mfEl.SelectAttrValue("type", ""),
				Width:    intAttr(mfEl, "width"),
				Height:   intAttr(mfEl, "height"),
				Bitrate:  intAttr(mfEl, "bitrate"),
				Codec:    mfEl.SelectAttrValue("codec", ""),
			})
		}
	}
	if teEl := el.SelectElement("TrackingEvents"); teEl != nil {
		lin.TrackingEvents = parseTrackingEvents(teEl)
	}
	return &lin
}

func parseTrackingEvents(el *etree.Element) []TrackingEvent {
	var events []TrackingEvent
	for _, tEl := range el.SelectElements("Tracking") {
		events = append(events, TrackingEvent{
			Event: tEl.SelectAttrValue("event", ""),
			URL:   strings.TrimSpace(tEl.Text()),
		})
	}
	return events
}

// ParseDuration parses the VAST duration format "HH:MM:SS" or
// "HH:MM:SS.mmm" into seconds. Malformed input yields 0.
func ParseDuration(duration string) float64 {
	parts := strings.Split(strings.TrimSpace(duration), ":")
	if len(parts) != 3 {
		slog.Warn("Invalid VAST duration format", "duration", duration)
		return 0
	}
	hours, _ := strconv.ParseFloat(parts[0], 64)
	minutes, _ := strconv.ParseFloat(parts[1], 64)
	seconds, _ := strconv.ParseFloat(parts[2], 64)
	return hours*3600 + minutes*60 + seconds
}

// SelectBestMediaFile picks the media file to stitch: HLS streaming
// files are preferred for segment-level insertion, otherwise the
// progressive MP4 with the highest bitrate.
func SelectBestMediaFile(mediaFiles []MediaFile) *MediaFile {
	for i := range mediaFiles {
		if mediaFiles[i].MimeType == "application/x-mpegURL" {
			return &mediaFiles[i]
		}
	}
	var progressive []*MediaFile
	for i := range mediaFiles {
		if mediaFiles[i].Delivery == "progressive" && mediaFiles[i].MimeType == "video/mp4" {
			progressive = append(progressive, &mediaFiles[i])
		}
	}
	if len(progressive) == 0 {
		return nil
	}
	sort.SliceStable(progressive, func(i, j int) bool {
		return progressive[i].Bitrate > progressive[j].Bitrate
	})
	return progressive[0]
}

func elementText(parent *etree.Element, tag string) string {
	if el := parent.SelectElement(tag); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

func intAttr(el *etree.Element, name string) int {
	v, err := strconv.Atoi(el.SelectAttrValue(name, ""))
	if err != nil {
		return 0
	}
	return v
}
