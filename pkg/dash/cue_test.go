package dash

import (
	"fmt"
	"testing"

	"github.com/mogiioin/adstitch/pkg/scte35"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mpdWithEventStream = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT2M">
  <Period id="content-0">
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="50" duration="30" id="1"/>
    </EventStream>
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="2000000">
        <SegmentTemplate media="video-$Number$.m4s" initialization="video-init.mp4"/>
      </Representation>
    </AdaptationSet>
  </Period>
  <Period id="content-1">
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="2000000">
        <SegmentTemplate media="video-$Number$.m4s" initialization="video-init.mp4"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func eventMPD(t *testing.T, eventStream string) string {
	t.Helper()
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static">
  <Period id="p0">
    %s
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <Representation id="v1" bandwidth="1000000">
        <SegmentTemplate media="$Number$.m4s"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`, eventStream)
}

func TestDetectAdBreaks(t *testing.T) {
	mpd, err := ParseMPD([]byte(mpdWithEventStream))
	require.NoError(t, err)

	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)
	assert.Equal(t, 0, breaks[0].PeriodIndex)
	assert.Equal(t, "content-0", breaks[0].PeriodID)
	assert.Equal(t, 30.0, breaks[0].Duration)
	assert.Equal(t, 50.0, breaks[0].PresentationTime)
	assert.Equal(t, SpliceInsert, breaks[0].SignalType)
}

func TestDetectAdBreaksTimescale(t *testing.T) {
	es := `<EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="90000">
      <Event presentationTime="4500000" duration="2700000" id="1"/>
    </EventStream>`
	mpd, err := ParseMPD([]byte(eventMPD(t, es)))
	require.NoError(t, err)

	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)
	assert.Equal(t, 50.0, breaks[0].PresentationTime)
	assert.Equal(t, 30.0, breaks[0].Duration)
}

func TestDetectAdBreaksBinaryPayload(t *testing.T) {
	payload := scte35.CreateSpliceInsertBase64(scte35.SpliceInsertParams{
		PtsTime:               900000,
		Duration:              30 * 90000,
		SpliceEventID:         1,
		OutOfNetworkIndicator: true,
	})
	es := fmt.Sprintf(`<EventStream schemeIdUri="urn:scte:scte35:2013:bin" timescale="1">
      <Event presentationTime="10" id="1" messageData="%s"/>
    </EventStream>`, payload)
	mpd, err := ParseMPD([]byte(eventMPD(t, es)))
	require.NoError(t, err)

	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)
	assert.Equal(t, 10.0, breaks[0].PresentationTime)
	assert.InDelta(t, 30.0, breaks[0].Duration, 0.001)
}

func TestDetectAdBreaksSkipsBadDurations(t *testing.T) {
	cases := []struct {
		name  string
		event string
	}{
		{"zero", `<Event presentationTime="10" duration="0" id="1"/>`},
		{"excessive", `<Event presentationTime="10" duration="601" id="1"/>`},
		{"missing", `<Event presentationTime="10" id="1"/>`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			es := `<EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">` +
				c.event + `</EventStream>`
			mpd, err := ParseMPD([]byte(eventMPD(t, es)))
			require.NoError(t, err)
			assert.Empty(t, DetectAdBreaks(mpd))
		})
	}
}

func TestDetectAdBreaksAcceptsMaxDuration(t *testing.T) {
	es := `<EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="10" duration="600" id="1"/>
    </EventStream>`
	mpd, err := ParseMPD([]byte(eventMPD(t, es)))
	require.NoError(t, err)

	breaks := DetectAdBreaks(mpd)
	require.Len(t, breaks, 1)
	assert.Equal(t, 600.0, breaks[0].Duration)
}

func TestDetectAdBreaksIgnoresOtherSchemes(t *testing.T) {
	es := `<EventStream schemeIdUri="urn:mpeg:dash:event:2012" timescale="1">
      <Event presentationTime="10" duration="30" id="1"/>
    </EventStream>`
	mpd, err := ParseMPD([]byte(eventMPD(t, es)))
	require.NoError(t, err)
	assert.Empty(t, DetectAdBreaks(mpd))
}

func TestIsSCTE35Scheme(t *testing.T) {
	assert.True(t, isSCTE35Scheme("urn:scte:scte35:2013:xml"))
	assert.True(t, isSCTE35Scheme("urn:scte:scte35:2013:bin"))
	assert.True(t, isSCTE35Scheme("urn:scte:scte35:2014:xml+bin"))
	assert.False(t, isSCTE35Scheme("urn:mpeg:dash:event:2012"))
	assert.False(t, isSCTE35Scheme(""))
}
