// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/applyform/config"
)

// SecurityHeadersOptions configures the security headers middleware.
// An empty string disables the corresponding header.
type SecurityHeadersOptions struct {
	// XFrameOptions controls whether the page can be embedded in iframes.
	// Default: "DENY"
	XFrameOptions string

	// XContentTypeOptions prevents MIME type sniffing.
	// Default: "nosniff"
	XContentTypeOptions string

	// ReferrerPolicy controls how much referrer information is sent.
	// Default: "strict-origin-when-cross-origin"
	ReferrerPolicy string

	// HSTSMaxAge sets the Strict-Transport-Security max-age in seconds.
	// Only sent when the request is over HTTPS. 0 disables HSTS.
	// Default: 31536000 (1 year)
	HSTSMaxAge int

	// HSTSIncludeSubDomains adds includeSubDomains to the HSTS header.
	HSTSIncludeSubDomains bool

	// HSTSPreload adds the preload directive to HSTS.
	HSTSPreload bool

	// ContentSecurityPolicy sets the Content-Security-Policy header.
	// The default allows only same-origin scripts, styles and form posts,
	// which is everything the application page loads.
	ContentSecurityPolicy string

	// PermissionsPolicy controls browser features.
	// Default: "camera=(), microphone=(), geolocation=()"
	PermissionsPolicy string
}

// DefaultSecurityHeadersOptions returns the options used for the
// application page and its API.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'; base-uri 'none'",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
	}
}

// SecurityHeaders returns middleware that sets common security headers.
//
//	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersOptions()))
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	hsts := ""
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if opts.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			setIf(h, "X-Frame-Options", opts.XFrameOptions)
			setIf(h, "X-Content-Type-Options", opts.XContentTypeOptions)
			setIf(h, "Referrer-Policy", opts.ReferrerPolicy)
			setIf(h, "Content-Security-Policy", opts.ContentSecurityPolicy)
			setIf(h, "Permissions-Policy", opts.PermissionsPolicy)

			// Plain-HTTP development must not pin browsers to HTTPS.
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

// SecurityHeadersFromConfig applies the default options, dropping HSTS when
// the service does not terminate TLS itself.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	opts := DefaultSecurityHeadersOptions()
	if coreCfg == nil || !coreCfg.HTTP.UseHTTPS {
		opts.HSTSMaxAge = 0
	}
	return SecurityHeaders(opts)
}
