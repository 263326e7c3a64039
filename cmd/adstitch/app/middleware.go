package app

import (
	"net/http"

	"github.com/mogiioin/adstitch/internal"
)

// addVersionAndCORSHeaders adds the server version and permissive CORS
// headers. Browser-side HLS/DASH players fetch manifests cross-origin.
func addVersionAndCORSHeaders(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Adstitch-Version", internal.GetVersion())
		w.Header().Add("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Methods", "*")
		w.Header().Add("Access-Control-Allow-Headers", "*")
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
