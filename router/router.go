// router/router.go
package router

import (
	"github.com/dalemusser/applyform/config"
	"github.com/dalemusser/applyform/logging"
	"github.com/dalemusser/applyform/metrics"
	"github.com/dalemusser/applyform/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router with the standard middleware stack:
// RequestID, RealIP, panic recovery, body size limit, security headers,
// compression, HTTP metrics, request logging and JSON 404/405 handlers.
// Routes, health and version stay with the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
