// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/applyform/config"
	"github.com/go-chi/cors"
)

// The form API is read with GET and written with JSON POSTs. These apply
// when cors_allowed_methods or cors_allowed_headers is left empty.
var (
	apiMethods = []string{http.MethodGet, http.MethodPost}
	apiHeaders = []string{"Accept", "Content-Type"}
)

// CORSFromConfig builds the CORS middleware for the /api routes, used when
// the apply page is embedded on another origin. The draft lives in a
// session cookie, so cross-origin callers need cors_allow_credentials and
// an explicit origin list.
//
// With enable_cors off it returns an identity middleware.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := coreCfg.CORS
	methods := c.CORSAllowedMethods
	if len(methods) == 0 {
		methods = apiMethods
	}
	headers := c.CORSAllowedHeaders
	if len(headers) == 0 {
		headers = apiHeaders
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   c.CORSExposedHeaders,
		AllowCredentials: c.CORSAllowCredentials,
		MaxAge:           c.CORSMaxAge,
	})
}
