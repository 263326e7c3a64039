// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dash

import (
	"log/slog"
	"strings"

	m "github.com/Eyevinn/dash-mpd/mpd"
	"github.com/mogiioin/adstitch/pkg/scte35"
)

// maxBreakDurationS bounds announced break durations so a malicious MPD
// cannot request absurd amounts of ad content.
const maxBreakDurationS = 600.0

// SignalType is the kind of SCTE-35 signal that announced an ad break.
type SignalType int

const (
	SpliceInsert SignalType = iota
	TimeSignal
)

// AdBreak is an ad opportunity signaled by a SCTE-35 EventStream.
// PresentationTime and Duration are in seconds within the Period.
type AdBreak struct {
	PeriodIndex      int
	PeriodID         string
	Duration         float64
	PresentationTime float64
	SignalType       SignalType
}

// DetectAdBreaks scans every Period's EventStreams for SCTE-35 schemes
// and extracts one ad break per Event carrying a usable duration. The
// duration comes from the Event's duration attribute, or for binary
// EventStreams from the splice_insert inside its base64 message data.
func DetectAdBreaks(mpd *m.MPD) []AdBreak {
	var breaks []AdBreak
	for periodIdx, period := range mpd.Periods {
		for _, es := range period.EventStreams {
			if !isSCTE35Scheme(string(es.SchemeIdUri)) {
				continue
			}
			timescale := 1.0
			if es.Timescale != nil && *es.Timescale > 0 {
				timescale = float64(*es.Timescale)
			}
			for _, event := range es.Events {
				if event == nil {
					continue
				}
				if brk, ok := spliceInsertBreak(event, periodIdx, period.Id, timescale); ok {
					slog.Info("Detected DASH ad break",
						"period", periodIdx,
						"presentation_time", brk.PresentationTime,
						"duration", brk.Duration)
					breaks = append(breaks, brk)
				}
			}
		}
	}
	return breaks
}

func isSCTE35Scheme(schemeIdUri string) bool {
	return strings.HasPrefix(schemeIdUri, scte35.SchemeIDURIPrefix)
}

func spliceInsertBreak(event *m.EventType, periodIdx int, periodID string,
	timescale float64) (AdBreak, bool) {
	presentationTime := float64(event.PresentationTime) / timescale

	var duration float64
	switch {
	case event.Duration != 0:
		duration = float64(event.Duration) / timescale
	case event.MessageData != "":
		dur, hasDur, err := scte35.BreakDurationSeconds(event.MessageData)
		if err != nil {
			slog.Warn("Cannot parse binary SCTE-35 payload", "period", periodIdx, "err", err)
			return AdBreak{}, false
		}
		if !hasDur {
			slog.Warn("Binary SCTE-35 payload has no break duration", "period", periodIdx)
			return AdBreak{}, false
		}
		duration = dur
	default:
		slog.Warn("SCTE-35 Event has no duration, skipping", "period", periodIdx)
		return AdBreak{}, false
	}

	if duration <= 0 || duration > maxBreakDurationS {
		slog.Warn("Invalid ad break duration, skipping",
			"period", periodIdx, "duration", duration, "max", maxBreakDurationS)
		return AdBreak{}, false
	}
	return AdBreak{
		PeriodIndex:      periodIdx,
		PeriodID:         periodID,
		Duration:         duration,
		PresentationTime: presentationTime,
		SignalType:       SpliceInsert,
	}, true
}
