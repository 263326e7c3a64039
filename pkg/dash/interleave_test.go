package dash

import (
	"testing"
	"time"

	m "github.com/Eyevinn/dash-mpd/mpd"
	"github.com/mogiioin/adstitch/pkg/ad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adSegs(durations ...float64) []ad.Segment {
	segs := make([]ad.Segment, 0, len(durations))
	for i, d := range durations {
		segs = append(segs, ad.Segment{
			URI:      "https://ads.example.com/seg-" + string(rune('a'+i)) + ".ts",
			Duration: d,
		})
	}
	return segs
}

func TestInterleaveAds(t *testing.T) {
	mpd, err := ParseMPD([]byte(mpdWithEventStream))
	require.NoError(t, err)
	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)

	out := InterleaveAds(mpd, breaks, [][]ad.Segment{adSegs(15, 15)},
		"sess-1", "http://stitcher.local")

	require.Len(t, out.Periods, 3)
	assert.Equal(t, "content-0", out.Periods[0].Id)
	assert.Equal(t, "ad-0", out.Periods[1].Id)
	assert.Equal(t, "content-1", out.Periods[2].Id)

	adPeriod := out.Periods[1]
	require.NotNil(t, adPeriod.Duration)
	assert.Equal(t, m.Duration(30*time.Second), *adPeriod.Duration)

	// Track structure mirrors the content Period
	require.Len(t, adPeriod.AdaptationSets, 1)
	as := adPeriod.AdaptationSets[0]
	assert.Equal(t, mpd.Periods[0].AdaptationSets[0].ContentType, as.ContentType)
	assert.Equal(t, "video/mp4", as.MimeType)

	require.Len(t, as.Representations, 1)
	rep := as.Representations[0]
	assert.Equal(t, "ad-0-0", rep.Id)
	assert.Equal(t, uint32(2000000), rep.Bandwidth)
	require.NotNil(t, rep.SegmentList)
	require.Len(t, rep.SegmentList.SegmentURL, 2)
	assert.Equal(t, "http://stitcher.local/stitch/sess-1/ad/break-0-seg-0.ts",
		string(rep.SegmentList.SegmentURL[0].Media))
	assert.Equal(t, "http://stitcher.local/stitch/sess-1/ad/break-0-seg-1.ts",
		string(rep.SegmentList.SegmentURL[1].Media))
}

func TestInterleaveAdsMismatchLeavesMPDUnchanged(t *testing.T) {
	mpd, err := ParseMPD([]byte(mpdWithEventStream))
	require.NoError(t, err)
	breaks := DetectAdBreaks(mpd)

	out := InterleaveAds(mpd, breaks, nil, "sess-1", "http://stitcher.local")
	assert.Len(t, out.Periods, 2)
}

func TestInterleaveAdsEmptyBreakSkipped(t *testing.T) {
	mpd, err := ParseMPD([]byte(mpdWithEventStream))
	require.NoError(t, err)
	breaks := DetectAdBreaks(mpd)

	out := InterleaveAds(mpd, breaks, [][]ad.Segment{{}}, "sess-1", "http://stitcher.local")
	assert.Len(t, out.Periods, 2)
}

func TestInterleaveAdsFallbackAdaptationSet(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static">
  <Period id="p0">
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="10" duration="30" id="1"/>
    </EventStream>
  </Period>
</MPD>`
	mpd, err := ParseMPD([]byte(raw))
	require.NoError(t, err)
	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)

	out := InterleaveAds(mpd, breaks, [][]ad.Segment{adSegs(30)},
		"sess-1", "http://stitcher.local")

	require.Len(t, out.Periods, 2)
	adPeriod := out.Periods[1]
	require.Len(t, adPeriod.AdaptationSets, 1)
	assert.Equal(t, "video/mp4", adPeriod.AdaptationSets[0].MimeType)
	require.Len(t, adPeriod.AdaptationSets[0].Representations, 1)
	assert.Equal(t, uint32(fallbackBandwidth), adPeriod.AdaptationSets[0].Representations[0].Bandwidth)
}

func TestInterleaveAdsMultipleBreaks(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static">
  <Period id="p0">
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="10" duration="30" id="1"/>
    </EventStream>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="1000000">
        <SegmentTemplate media="$Number$.m4s"/>
      </Representation>
    </AdaptationSet>
  </Period>
  <Period id="p1">
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="5" duration="15" id="2"/>
    </EventStream>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="1000000">
        <SegmentTemplate media="$Number$.m4s"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`
	mpd, err := ParseMPD([]byte(raw))
	require.NoError(t, err)
	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 2)

	out := InterleaveAds(mpd, breaks,
		[][]ad.Segment{adSegs(15, 15), adSegs(15)},
		"sess-1", "http://stitcher.local")

	require.Len(t, out.Periods, 4)
	assert.Equal(t, "p0", out.Periods[0].Id)
	assert.Equal(t, "ad-0", out.Periods[1].Id)
	assert.Equal(t, "p1", out.Periods[2].Id)
	assert.Equal(t, "ad-1", out.Periods[3].Id)
}
