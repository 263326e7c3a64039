package hls

import (
	"testing"

	"github.com/mogiioin/hls-m3u8/m3u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaWithCues = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10,
seg0.ts
#EXTINF:10,
seg1.ts
#EXT-X-CUE-OUT:30
#EXTINF:10,
seg2.ts
#EXT-X-CUE-OUT-CONT:10/30
#EXTINF:10,
seg3.ts
#EXT-X-CUE-OUT-CONT:20/30
#EXTINF:10,
seg4.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg5.ts
#EXT-X-ENDLIST
`

func parseMedia(t *testing.T, content string) *m3u8.MediaPlaylist {
	t.Helper()
	pl, listType, err := Parse([]byte(content))
	require.NoError(t, err)
	require.Equal(t, m3u8.MEDIA, listType)
	return pl.(*m3u8.MediaPlaylist)
}

func TestDetectAdBreaks(t *testing.T) {
	mp := parseMedia(t, mediaWithCues)
	breaks := DetectAdBreaks(mp)
	require.Len(t, breaks, 1)
	assert.Equal(t, 2, breaks[0].StartIndex)
	assert.Equal(t, 5, breaks[0].EndIndex)
	assert.Equal(t, 30.0, breaks[0].Duration)
}

func TestDetectAdBreaksDurationAttribute(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10,
seg0.ts
#EXT-X-CUE-OUT:DURATION=45
#EXTINF:10,
seg1.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg2.ts
#EXT-X-ENDLIST
`
	breaks := DetectAdBreaks(parseMedia(t, content))
	require.Len(t, breaks, 1)
	assert.Equal(t, 1, breaks[0].StartIndex)
	assert.Equal(t, 2, breaks[0].EndIndex)
	assert.Equal(t, 45.0, breaks[0].Duration)
}

func TestDetectAdBreaksLegacyTagSpelling(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10,
seg0.ts
#EXT-CUE-OUT:30
#EXTINF:10,
seg1.ts
#EXT-CUE-OUT-CONT:10/30
#EXTINF:10,
seg2.ts
#EXT-CUE-IN
#EXTINF:10,
seg3.ts
#EXT-X-ENDLIST
`
	mp := parseMedia(t, content)
	breaks := DetectAdBreaks(mp)
	require.Len(t, breaks, 1)
	assert.Equal(t, 1, breaks[0].StartIndex)
	assert.Equal(t, 3, breaks[0].EndIndex)
	assert.Equal(t, 30.0, breaks[0].Duration)

	// The raw marker lines round-trip verbatim.
	out := Serialize(mp)
	assert.Contains(t, out, "#EXT-CUE-OUT:30")
	assert.Contains(t, out, "#EXT-CUE-IN")
}

func TestDetectAdBreaksUnclosed(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10,
seg0.ts
#EXT-X-CUE-OUT:20
#EXTINF:10,
seg1.ts
#EXTINF:10,
seg2.ts
#EXT-X-ENDLIST
`
	breaks := DetectAdBreaks(parseMedia(t, content))
	require.Len(t, breaks, 1)
	assert.Equal(t, 1, breaks[0].StartIndex)
	assert.Equal(t, 3, breaks[0].EndIndex)
}

func TestDetectAdBreaksCueInWithoutOut(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10,
seg0.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg1.ts
#EXT-X-ENDLIST
`
	assert.Empty(t, DetectAdBreaks(parseMedia(t, content)))
}

func TestDetectAdBreaksDuplicateCueOut(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-CUE-OUT:30
#EXTINF:10,
seg0.ts
#EXT-X-CUE-OUT:20
#EXTINF:10,
seg1.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg2.ts
#EXT-X-ENDLIST
`
	breaks := DetectAdBreaks(parseMedia(t, content))
	require.Len(t, breaks, 1)
	assert.Equal(t, 0, breaks[0].StartIndex)
	assert.Equal(t, 2, breaks[0].EndIndex)
	assert.Equal(t, 30.0, breaks[0].Duration)
}

func TestDetectAdBreaksBadDuration(t *testing.T) {
	content := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-CUE-OUT:not-a-number
#EXTINF:10,
seg0.ts
#EXT-X-CUE-IN
#EXTINF:10,
seg1.ts
#EXT-X-ENDLIST
`
	assert.Empty(t, DetectAdBreaks(parseMedia(t, content)))
}

func TestParseCueOutValue(t *testing.T) {
	cases := []struct {
		value string
		dur   float64
		ok    bool
	}{
		{"30", 30.0, true},
		{"30.5", 30.5, true},
		{"DURATION=30", 30.0, true},
		{`DURATION="15"`, 15.0, true},
		{"DURATION=30,SCTE35=abcd", 30.0, true},
		{"-5", 0, false},
		{"garbage", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		dur, err := parseCueOutValue(c.value)
		if c.ok {
			require.NoError(t, err, c.value)
			assert.Equal(t, c.dur, dur, c.value)
		} else {
			assert.Error(t, err, c.value)
		}
	}
}

func TestIsInAdBreak(t *testing.T) {
	breaks := []AdBreak{{StartIndex: 2, EndIndex: 5}}
	assert.False(t, IsInAdBreak(breaks, 1))
	assert.True(t, IsInAdBreak(breaks, 2))
	assert.True(t, IsInAdBreak(breaks, 4))
	assert.False(t, IsInAdBreak(breaks, 5))
}
