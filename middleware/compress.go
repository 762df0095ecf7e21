// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/applyform/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the content types the service emits that benefit
// from compression.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig returns a gzip/deflate middleware at
// coreCfg.CompressionLevel, or a no-op when compression is disabled.
// The level was range-checked by config validation.
//
//	r.Use(middleware.CompressFromConfig(coreCfg))
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return Compress(coreCfg.CompressionLevel)
}

// Compress returns a compression middleware for the service's content
// types. Levels outside 1-9 are clamped.
func Compress(level int) func(next http.Handler) http.Handler {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return middleware.Compress(level, compressibleTypes...)
}
