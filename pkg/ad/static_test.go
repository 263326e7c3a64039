package ad

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderExactDuration(t *testing.T) {
	provider := NewStaticProvider("https://ads.example.com", 10.0)
	segments := provider.GetAdSegments(context.Background(), 30.0, "test-session")

	require.Len(t, segments, 3)
	assert.Equal(t, 10.0, segments[0].Duration)
	assert.Equal(t, "https://ads.example.com/ad-segment-0.ts", segments[0].URI)
	assert.Nil(t, segments[0].Tracking)
	assert.Equal(t, "https://ads.example.com/ad-segment-1.ts", segments[1].URI)
	assert.Equal(t, "https://ads.example.com/ad-segment-2.ts", segments[2].URI)
}

func TestStaticProviderPartialDuration(t *testing.T) {
	provider := NewStaticProvider("https://ads.example.com", 10.0)
	// 25 / 10 = 2.5, ceiling = 3 segments
	segments := provider.GetAdSegments(context.Background(), 25.0, "test-session")
	assert.Len(t, segments, 3)
}

func TestStaticProviderMinOneSegment(t *testing.T) {
	provider := NewStaticProvider("https://ads.example.com", 10.0)
	assert.Len(t, provider.GetAdSegments(context.Background(), 2.0, "s"), 1)
	assert.Len(t, provider.GetAdSegments(context.Background(), 0.0, "s"), 1)
}

func TestParseSegmentIndex(t *testing.T) {
	cases := []struct {
		adName string
		index  int
		ok     bool
	}{
		{"break-0-seg-0.ts", 0, true},
		{"break-0-seg-3.ts", 3, true},
		{"break-1-seg-15.ts", 15, true},
		{"invalid.ts", 0, false},
		{"break-0-seg-x.ts", 0, false},
	}
	for _, c := range cases {
		idx, ok := parseSegmentIndex(c.adName)
		assert.Equal(t, c.ok, ok, c.adName)
		if ok {
			assert.Equal(t, c.index, idx, c.adName)
		}
	}
}

func TestStaticProviderResolveSegmentURL(t *testing.T) {
	provider := NewStaticProviderWithCount("https://hls.src.tedm.io/content/ts_h264_480p_1s", 1.0, 10)

	url, ok := provider.ResolveSegmentURL("break-0-seg-0.ts")
	require.True(t, ok)
	assert.Equal(t, "https://hls.src.tedm.io/content/ts_h264_480p_1s/out_000.ts", url)

	url, ok = provider.ResolveSegmentURL("break-0-seg-3.ts")
	require.True(t, ok)
	assert.Equal(t, "https://hls.src.tedm.io/content/ts_h264_480p_1s/out_003.ts", url)

	// Cycling: segment 15 wraps to index 5 with 10 source segments
	url, ok = provider.ResolveSegmentURL("break-1-seg-15.ts")
	require.True(t, ok)
	assert.Equal(t, "https://hls.src.tedm.io/content/ts_h264_480p_1s/out_005.ts", url)

	_, ok = provider.ResolveSegmentURL("invalid.ts")
	assert.False(t, ok)
}

func TestStaticProviderCreativesMatchSegments(t *testing.T) {
	provider := NewStaticProvider("https://ads.example.com", 10.0)
	creatives := provider.GetAdCreatives(context.Background(), 30.0, "s")
	require.Len(t, creatives, 3)
	assert.Equal(t, "https://ads.example.com/ad-segment-0.ts", creatives[0].URI)
	assert.Equal(t, 10.0, creatives[0].Duration)
}
