// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package tracking fires VAST tracking beacons and decides which
// quartile events belong to a given ad segment.
package tracking

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mogiioin/adstitch/pkg/vast"
)

const beaconTimeout = 2 * time.Second

// ResultFunc records the outcome of a beacon for metrics.
// result is "success" or "error".
type ResultFunc func(eventName, result string)

// EventsForSegment returns the tracking events that should fire when
// serving segment segmentIndex out of totalSegments.
//
// Threshold crossing logic: an event fires on the first segment whose
// progress crosses its quartile boundary, so all quartile events fire
// even for short ads with only a couple of segments.
func EventsForSegment(segmentIndex, totalSegments int, events []vast.TrackingEvent) []vast.TrackingEvent {
	if totalSegments <= 0 {
		return nil
	}

	var progress float64
	if totalSegments == 1 {
		progress = 1.0
	} else {
		progress = float64(segmentIndex) / float64(totalSegments-1)
	}

	// Previous segment's progress, -1 sentinel when there is none.
	prevProgress := -1.0
	if segmentIndex > 0 && totalSegments > 1 {
		prevProgress = float64(segmentIndex-1) / float64(totalSegments-1)
	}

	var out []vast.TrackingEvent
	for _, ev := range events {
		var shouldFire bool
		switch ev.Event {
		case "start":
			shouldFire = segmentIndex == 0
		case "firstQuartile":
			shouldFire = progress >= 0.25 && prevProgress < 0.25
		case "midpoint":
			shouldFire = progress >= 0.50 && prevProgress < 0.50
		case "thirdQuartile":
			shouldFire = progress >= 0.75 && prevProgress < 0.75
		case "complete":
			shouldFire = segmentIndex == totalSegments-1
		}
		if shouldFire {
			out = append(out, ev)
		}
	}
	return out
}

// FireBeacon fires a single tracking beacon in the background.
// Best effort, no retries. The connection pool of the shared client
// provides natural backpressure.
func FireBeacon(client *http.Client, url, eventName string, record ResultFunc) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), beaconTimeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			slog.Warn("Tracking beacon failed", "event", eventName, "err", err)
			if record != nil {
				record(eventName, "error")
			}
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			slog.Warn("Tracking beacon failed", "event", eventName, "err", err)
			if record != nil {
				record(eventName, "error")
			}
			return
		}
		defer resp.Body.Close()
		slog.Debug("Tracking beacon", "event", eventName, "url", url, "status", resp.StatusCode)
		if record != nil {
			record(eventName, "success")
		}
	}()
}

// FireImpressions fires all impression beacons for an ad. Impressions
// fire when the first segment of the ad is served.
func FireImpressions(client *http.Client, impressionURLs []string, record ResultFunc) {
	for _, url := range impressionURLs {
		FireBeacon(client, url, "impression", record)
	}
}

// FireError fires the VAST error beacon. Called when a VAST fetch or
// an ad segment fetch fails.
func FireError(client *http.Client, errorURL string, record ResultFunc) {
	FireBeacon(client, errorURL, "error", record)
}
