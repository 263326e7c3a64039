package hls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureProgramDateTime(t *testing.T) {
	mp := parseMedia(t, mediaWithCues)
	EnsureProgramDateTime(mp)

	segments := mp.GetAllSegments()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base, segments[0].ProgramDateTime)
	assert.Equal(t, base.Add(10*time.Second), segments[1].ProgramDateTime)
	assert.Equal(t, base.Add(50*time.Second), segments[5].ProgramDateTime)
}

func TestEnsureProgramDateTimeKeepsExisting(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-PROGRAM-DATE-TIME:2025-06-15T12:00:00Z
#EXTINF:10,
seg0.ts
#EXTINF:10,
seg1.ts
#EXT-X-ENDLIST
`
	mp := parseMedia(t, content)
	EnsureProgramDateTime(mp)

	segments := mp.GetAllSegments()
	assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), segments[0].ProgramDateTime)
	// The untagged segment stays untagged
	assert.True(t, segments[1].ProgramDateTime.IsZero())
}

func TestInjectInterstitials(t *testing.T) {
	mp := parseMedia(t, mediaWithCues)
	breaks := DetectAdBreaks(mp)
	require.Len(t, breaks, 1)

	EnsureProgramDateTime(mp)
	InjectInterstitials(mp, breaks, "session-1", "http://stitcher.example.com")

	segments := mp.GetAllSegments()
	require.Len(t, segments[2].SCTE35DateRanges, 1)
	dr := segments[2].SCTE35DateRanges[0]
	assert.Equal(t, "ad-break-0", dr.ID)
	assert.Equal(t, "com.apple.hls.interstitial", dr.Class)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 20, 0, time.UTC), dr.StartDate)

	out := Serialize(mp)
	assert.Contains(t, out, `ID="ad-break-0"`)
	assert.Contains(t, out, `CLASS="com.apple.hls.interstitial"`)
	assert.Contains(t, out, `DURATION=30,`)
	assert.NotContains(t, out, `DURATION=30.000`)
	assert.Contains(t, out, `X-ASSET-LIST="http://stitcher.example.com/stitch/session-1/asset-list/0?dur=30"`)
	assert.Contains(t, out, `X-RESUME-OFFSET=0`)
	assert.Contains(t, out, `X-RESTRICT="SKIP,JUMP"`)

	// Legacy CUE tags are stripped after injection
	assert.NotContains(t, out, "CUE-OUT")
	assert.NotContains(t, out, "CUE-IN")
}

func TestProgramDateTimeAtWalksFromAnchor(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-PROGRAM-DATE-TIME:2025-06-15T12:00:00Z
#EXTINF:10,
seg0.ts
#EXTINF:10,
seg1.ts
#EXT-X-CUE-OUT:30
#EXTINF:10,
seg2.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg3.ts
#EXT-X-ENDLIST
`
	mp := parseMedia(t, content)
	segments := mp.GetAllSegments()
	got := programDateTimeAt(segments, 2)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 0, 20, 0, time.UTC), got)
}
