// middleware/sizelimit.go
package middleware

import (
	"errors"
	"net/http"
)

// LimitBodySize caps request bodies at maxBytes (max_request_body_bytes).
// An application is a handful of short fields, so anything near the cap is
// not a real submission. maxBytes <= 0 leaves bodies unwrapped.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// IsBodyTooLarge reports whether parsing a form post failed because the
// body went over the limit, so the handler can answer 413 instead of 400.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
