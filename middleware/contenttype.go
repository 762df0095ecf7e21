// middleware/contenttype.go
package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/applyform/httputil"
)

// RequireJSON rejects requests whose Content-Type is not application/json
// or a +json type, with 415 and a JSON error body.
func RequireJSON() func(next http.Handler) http.Handler {
	return requireContentType("Content-Type must be application/json", func(mt string) bool {
		return mt == "application/json" || strings.HasSuffix(mt, "+json")
	})
}

// RequireForm rejects requests that are not HTML form posts.
func RequireForm() func(next http.Handler) http.Handler {
	return requireContentType("Content-Type must be a form encoding", func(mt string) bool {
		return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
	})
}

func requireContentType(message string, ok func(mediaType string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || !ok(strings.ToLower(mt)) {
				httputil.JSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
