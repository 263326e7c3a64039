package origin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/MP2T")
		_, _ = w.Write([]byte("segment-bytes"))
	}))
	defer ts.Close()

	c := NewClient()
	body, contentType, err := c.Get(context.Background(), ts.URL+"/seg1.ts")
	require.NoError(t, err)
	require.Equal(t, "segment-bytes", string(body))
	require.Equal(t, "video/MP2T", contentType)
}

func TestClientGetNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient()
	_, _, err := c.Get(context.Background(), ts.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}

func TestClientGetWithRetry(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := NewClient()
	body, _, err := c.GetWithRetry(context.Background(), ts.URL, 2, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.Equal(t, int32(2), calls.Load())
}

func TestClientGetWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient()
	_, _, err := c.GetWithRetry(context.Background(), ts.URL, 2, 10*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, int32(2), calls.Load())
}
