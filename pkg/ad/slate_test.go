package ad

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlateFillDurationExact(t *testing.T) {
	provider := NewSlateProvider("https://slate.example.com", 2.0)
	segments := provider.FillDuration(10.0, "test-session")

	require.Len(t, segments, 5)
	for i, seg := range segments {
		assert.Equal(t, fmt.Sprintf("slate-seg-%d.ts", i), seg.URI)
		assert.Equal(t, 2.0, seg.Duration)
	}
}

func TestSlateFillDurationPartial(t *testing.T) {
	provider := NewSlateProvider("https://slate.example.com", 2.0)
	// 7.0 / 2.0 = 3.5, ceil = 4
	assert.Len(t, provider.FillDuration(7.0, "test-session"), 4)
}

func TestSlateFillDurationMinimumOne(t *testing.T) {
	provider := NewSlateProvider("https://slate.example.com", 10.0)
	assert.Len(t, provider.FillDuration(0.0, "test-session"), 1)
}

func TestSlateResolveSegmentURL(t *testing.T) {
	provider := NewSlateProvider("https://slate.example.com/content", 1.0)

	url, ok := provider.ResolveSegmentURL("slate-seg-0.ts")
	require.True(t, ok)
	assert.Equal(t, "https://slate.example.com/content/out_000.ts", url)

	url, ok = provider.ResolveSegmentURL("slate-seg-3.ts")
	require.True(t, ok)
	assert.Equal(t, "https://slate.example.com/content/out_003.ts", url)

	// Cycling: index 15 wraps to 5 with 10 source segments
	url, ok = provider.ResolveSegmentURL("slate-seg-15.ts")
	require.True(t, ok)
	assert.Equal(t, "https://slate.example.com/content/out_005.ts", url)
}

func TestSlateResolveSegmentURLInvalid(t *testing.T) {
	provider := NewSlateProvider("https://slate.example.com", 1.0)

	_, ok := provider.ResolveSegmentURL("invalid.ts")
	assert.False(t, ok)
	_, ok = provider.ResolveSegmentURL("break-0-seg-0.ts")
	assert.False(t, ok)
}

func TestSlateAsProvider(t *testing.T) {
	var provider Provider = NewSlateProvider("https://slate.example.com", 2.0)

	segments := provider.GetAdSegments(context.Background(), 6.0, "session-1")
	assert.Len(t, segments, 3)

	_, ok := provider.ResolveSegmentURL("slate-seg-0.ts")
	assert.True(t, ok)

	resolved, ok := provider.ResolveSegmentWithTracking("slate-seg-0.ts", "session-1")
	require.True(t, ok)
	assert.Nil(t, resolved.Tracking)
}
