// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultBuckets = []float64{5, 10, 20, 50, 100, 200, 500, 1000}
	prometheusMW   prometheusMiddleware
	domainMetrics  stitchMetrics
)

const (
	reqsName    = "http_requests_total"
	latencyName = "http_request_duration_milliseconds"
	service     = "adstitch"
)

// prometheusMiddleware counts requests and latency partitioned by
// endpoint class and status code.
type prometheusMiddleware struct {
	reqs    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// stitchMetrics are the ad-stitching domain instruments.
type stitchMetrics struct {
	adBreaksDetected      prometheus.Counter
	interstitialsInjected prometheus.Counter
	vastRequests          *prometheus.CounterVec
	slateFallbacks        prometheus.Counter
	originFetchErrors     prometheus.Counter
	trackingBeacons       *prometheus.CounterVec
	activeSessions        prometheus.Gauge
}

func init() {
	prometheusMW.reqs = newCounter(reqsName,
		"Number of requests processed, partitioned by endpoint and status code.",
		service, []string{"endpoint", "code"})
	prometheusMW.latency = newHistogram(latencyName,
		"Response latency, partitioned by endpoint and status code.",
		service, []string{"endpoint", "code"}, defaultBuckets)

	domainMetrics.adBreaksDetected = newPlainCounter("ad_breaks_detected_total",
		"Number of SCTE-35 ad breaks detected in playlists and manifests.")
	domainMetrics.interstitialsInjected = newPlainCounter("interstitials_injected_total",
		"Number of HLS interstitial DateRanges injected.")
	domainMetrics.vastRequests = newCounter("vast_requests_total",
		"Number of VAST ad server requests, partitioned by result.",
		service, []string{"result"})
	domainMetrics.slateFallbacks = newPlainCounter("slate_fallbacks_total",
		"Number of ad breaks filled with slate content.")
	domainMetrics.originFetchErrors = newPlainCounter("origin_fetch_errors_total",
		"Number of failed origin fetches after retries.")
	domainMetrics.trackingBeacons = newCounter("tracking_beacons_total",
		"Number of tracking beacons fired, partitioned by event and result.",
		service, []string{"event", "result"})
	domainMetrics.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "active_sessions",
		Help:        "Number of active stitching sessions.",
		ConstLabels: prometheus.Labels{"service": service},
	})
	prometheus.MustRegister(domainMetrics.activeSessions)
}

// NewPrometheusMiddleware returns a new prometheus middleware handler.
func NewPrometheusMiddleware() func(next http.Handler) http.Handler {
	return prometheusMW.handler
}

func (mw prometheusMiddleware) handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		endpoint := endpointClass(path)
		if endpoint == "" {
			return
		}
		status := strconv.Itoa(ww.Status())
		latencyMS := float64(time.Since(start).Nanoseconds()) * 1e-6
		mw.reqs.WithLabelValues(endpoint, status).Inc()
		mw.latency.WithLabelValues(endpoint, status).Observe(latencyMS)
	}
	return http.HandlerFunc(fn)
}

func endpointClass(path string) string {
	switch {
	case strings.HasSuffix(path, "/playlist.m3u8"):
		return "playlist"
	case strings.HasSuffix(path, "/manifest.mpd"):
		return "manifest"
	case strings.Contains(path, "/segment/"):
		return "segment"
	case strings.Contains(path, "/ad/"):
		return "ad"
	case strings.Contains(path, "/asset-list/"):
		return "asset_list"
	}
	return ""
}

func newCounter(counterName, help, serviceName string, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        counterName,
			Help:        help,
			ConstLabels: prometheus.Labels{"service": serviceName},
		},
		labels,
	)
	prometheus.MustRegister(cv)
	return cv
}

func newPlainCounter(counterName, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        counterName,
		Help:        help,
		ConstLabels: prometheus.Labels{"service": service},
	})
	prometheus.MustRegister(c)
	return c
}

func newHistogram(histogramName, help, serviceName string, labels []string, buckets []float64) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        histogramName,
		Help:        help,
		ConstLabels: prometheus.Labels{"service": serviceName},
		Buckets:     buckets,
	},
		labels,
	)
	prometheus.MustRegister(h)
	return h
}

func recordBeacon(eventName, result string) {
	domainMetrics.trackingBeacons.WithLabelValues(eventName, result).Inc()
}
