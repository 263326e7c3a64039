// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"
)

// demoPlaylist is a synthetic HLS media playlist with CUE markers and
// real, reachable segments from the Mux public test stream. The CUE
// markers open a 30-second ad break window at segments 5-7.
//
// Point a player at
// /stitch/demo/playlist.m3u8?origin={base}/demo/playlist.m3u8 to run
// the whole pipeline against it.
const demoPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0

#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_462/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_463/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_464/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_465/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_466/193039199_mp4_h264_aac_hd_7.ts

#EXT-X-CUE-OUT:30
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_467/193039199_mp4_h264_aac_hd_7.ts
#EXT-X-CUE-OUT-CONT:10/30
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_468/193039199_mp4_h264_aac_hd_7.ts
#EXT-X-CUE-OUT-CONT:20/30
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_469/193039199_mp4_h264_aac_hd_7.ts
#EXT-X-CUE-IN

#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_470/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_471/193039199_mp4_h264_aac_hd_7.ts
#EXTINF:10.0,
https://test-streams.mux.dev/x36xhzz/url_0/url_472/193039199_mp4_h264_aac_hd_7.ts

#EXT-X-ENDLIST
`

// demoManifest is a synthetic DASH MPD with two content Periods. The
// first carries a SCTE-35 EventStream announcing a 30-second ad break
// at 50 seconds.
const demoManifest = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT90S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <Period id="content-1" duration="PT60S">
    <BaseURL>https://test-streams.mux.dev/x36xhzz/url_0/</BaseURL>
    <AdaptationSet id="1" contentType="video" mimeType="video/mp2t">
      <Representation id="video" bandwidth="800000" codecs="avc1.64001f">
        <SegmentTemplate media="url_$Number$/193039199_mp4_h264_aac_hd_7.ts" timescale="1" duration="10" startNumber="462"/>
      </Representation>
    </AdaptationSet>
    <AdaptationSet id="2" contentType="audio" mimeType="audio/mp4" lang="en">
      <Representation id="audio" bandwidth="128000" codecs="mp4a.40.2">
        <SegmentTemplate media="url_$Number$/193039199_mp4_h264_aac_hd_7.ts" timescale="1" duration="10" startNumber="462"/>
      </Representation>
    </AdaptationSet>
    <EventStream schemeIdUri="urn:scte:scte35:2013:xml" timescale="1">
      <Event presentationTime="50" duration="30" id="1"/>
    </EventStream>
  </Period>
  <Period id="content-2" duration="PT30S">
    <BaseURL>https://test-streams.mux.dev/x36xhzz/url_0/</BaseURL>
    <AdaptationSet id="1" contentType="video" mimeType="video/mp2t">
      <Representation id="video" bandwidth="800000" codecs="avc1.64001f">
        <SegmentTemplate media="url_$Number$/193039199_mp4_h264_aac_hd_7.ts" timescale="1" duration="10" startNumber="468"/>
      </Representation>
    </AdaptationSet>
    <AdaptationSet id="2" contentType="audio" mimeType="audio/mp4" lang="en">
      <Representation id="audio" bandwidth="128000" codecs="mp4a.40.2">
        <SegmentTemplate media="url_$Number$/193039199_mp4_h264_aac_hd_7.ts" timescale="1" duration="10" startNumber="468"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func (s *Server) demoPlaylistHandlerFunc(w http.ResponseWriter, r *http.Request) {
	slog.Info("Serving demo HLS playlist with CUE markers")
	w.Header().Set("Content-Type", contentTypeHLS)
	_, _ = w.Write([]byte(demoPlaylist))
}

func (s *Server) demoManifestHandlerFunc(w http.ResponseWriter, r *http.Request) {
	slog.Info("Serving demo DASH manifest with SCTE-35 EventStream")
	w.Header().Set("Content-Type", contentTypeDASH)
	_, _ = w.Write([]byte(demoManifest))
}
