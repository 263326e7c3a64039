// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package hls

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mogiioin/hls-m3u8/m3u8"
)

// Tag names for SCTE-35 splice markers as they appear in media playlists.
// Names include the leading '#' and, where the tag carries a value, the
// trailing ':' so that prefix matching cannot confuse CUE-OUT with
// CUE-OUT-CONT. Some packagers emit the markers without the X-, so both
// spellings are decoded.
const (
	TagCueOut     = "#EXT-X-CUE-OUT:"
	TagCueOutCont = "#EXT-X-CUE-OUT-CONT:"
	TagCueIn      = "#EXT-X-CUE-IN"

	TagCueOutLegacy     = "#EXT-CUE-OUT:"
	TagCueOutContLegacy = "#EXT-CUE-OUT-CONT:"
	TagCueInLegacy      = "#EXT-CUE-IN"
)

// cueTagNames lists every splice marker tag name in both spellings.
var cueTagNames = []string{
	TagCueOut, TagCueOutCont, TagCueIn,
	TagCueOutLegacy, TagCueOutContLegacy, TagCueInLegacy,
}

// AdBreak is a splice window in a media playlist. StartIndex is the first
// segment inside the break and EndIndex is exclusive. Duration is the
// announced break duration in seconds.
type AdBreak struct {
	StartIndex int
	EndIndex   int
	Duration   float64
}

// CueTag is a raw splice marker line kept verbatim so that serialization
// round-trips the origin playlist.
type CueTag struct {
	Name string
	Line string
}

func (t *CueTag) TagName() string { return t.Name }

func (t *CueTag) Encode() *bytes.Buffer { return bytes.NewBufferString(t.Line) }

func (t *CueTag) String() string { return t.Line }

// CueOutTag is a CUE-OUT marker with its parsed break duration.
// Valid is false when the duration could not be parsed, in which case
// the marker does not open an ad break.
type CueOutTag struct {
	Name     string
	Line     string
	Duration float64
	Valid    bool
}

func (t *CueOutTag) TagName() string { return t.Name }

func (t *CueOutTag) Encode() *bytes.Buffer { return bytes.NewBufferString(t.Line) }

func (t *CueOutTag) String() string { return t.Line }

type cueOutDecoder struct{ tag string }

func (d cueOutDecoder) TagName() string { return d.tag }

func (d cueOutDecoder) SegmentTag() bool { return true }

func (d cueOutDecoder) Decode(line string) (m3u8.CustomTag, error) {
	value := strings.TrimPrefix(line, d.tag)
	dur, err := parseCueOutValue(value)
	if err != nil {
		return &CueOutTag{Name: d.tag, Line: line}, err
	}
	return &CueOutTag{Name: d.tag, Line: line, Duration: dur, Valid: true}, nil
}

type cueOutContDecoder struct{ tag string }

func (d cueOutContDecoder) TagName() string { return d.tag }

func (d cueOutContDecoder) SegmentTag() bool { return true }

func (d cueOutContDecoder) Decode(line string) (m3u8.CustomTag, error) {
	return &CueTag{Name: d.tag, Line: line}, nil
}

type cueInDecoder struct{ tag string }

func (d cueInDecoder) TagName() string { return d.tag }

func (d cueInDecoder) SegmentTag() bool { return true }

func (d cueInDecoder) Decode(line string) (m3u8.CustomTag, error) {
	return &CueTag{Name: d.tag, Line: line}, nil
}

// CueDecoders returns the custom tag decoders for SCTE-35 splice
// markers, covering both tag spellings.
func CueDecoders() []m3u8.CustomDecoder {
	return []m3u8.CustomDecoder{
		cueOutDecoder{TagCueOut},
		cueOutContDecoder{TagCueOutCont},
		cueInDecoder{TagCueIn},
		cueOutDecoder{TagCueOutLegacy},
		cueOutContDecoder{TagCueOutContLegacy},
		cueInDecoder{TagCueInLegacy},
	}
}

// parseCueOutValue parses the value of a CUE-OUT tag. Both the bare
// number form "30" and the attribute form "DURATION=30" are accepted.
func parseCueOutValue(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if dur, err := strconv.ParseFloat(value, 64); err == nil {
		return checkCueDuration(dur)
	}
	for _, attr := range strings.Split(value, ",") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(attr), "DURATION="); ok {
			dur, err := strconv.ParseFloat(strings.Trim(rest, `"`), 64)
			if err != nil {
				return 0, fmt.Errorf("bad CUE-OUT duration %q", rest)
			}
			return checkCueDuration(dur)
		}
	}
	return 0, fmt.Errorf("bad CUE-OUT value %q", value)
}

func checkCueDuration(dur float64) (float64, error) {
	if dur < 0 || math.IsNaN(dur) {
		return 0, fmt.Errorf("bad CUE-OUT duration %f", dur)
	}
	return dur, nil
}

// DetectAdBreaks scans a media playlist for SCTE-35 splice markers and
// returns the ad breaks they delimit. A CUE-OUT opens a break unless one
// is already open, a CUE-IN closes the open break at the tagged segment
// (exclusive), and a break still open at the end of the playlist closes
// at the segment count.
func DetectAdBreaks(p *m3u8.MediaPlaylist) []AdBreak {
	segments := p.GetAllSegments()
	var breaks []AdBreak
	var open *AdBreak
	for i, seg := range segments {
		if seg.Custom == nil {
			continue
		}
		if hasCueIn(seg.Custom) && open != nil {
			open.EndIndex = i
			breaks = append(breaks, *open)
			open = nil
		}
		if out := cueOutOf(seg.Custom); out != nil && out.Valid && open == nil {
			open = &AdBreak{StartIndex: i, Duration: out.Duration}
		}
	}
	if open != nil {
		open.EndIndex = len(segments)
		breaks = append(breaks, *open)
	}
	return breaks
}

func hasCueIn(custom m3u8.CustomMap) bool {
	for _, name := range []string{TagCueIn, TagCueInLegacy} {
		if _, ok := custom[name]; ok {
			return true
		}
	}
	return false
}

func cueOutOf(custom m3u8.CustomMap) *CueOutTag {
	for _, name := range []string{TagCueOut, TagCueOutLegacy} {
		if tag, ok := custom[name]; ok {
			if out, ok := tag.(*CueOutTag); ok {
				return out
			}
		}
	}
	return nil
}

// IsInAdBreak reports whether segment index idx falls inside any break.
func IsInAdBreak(breaks []AdBreak, idx int) bool {
	for _, b := range breaks {
		if idx >= b.StartIndex && idx < b.EndIndex {
			return true
		}
	}
	return false
}
