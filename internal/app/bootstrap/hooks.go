package bootstrap

import (
	"net/http"

	"github.com/dalemusser/applyform/app"
	"github.com/dalemusser/applyform/config"
	"github.com/dalemusser/applyform/httputil"
	"github.com/dalemusser/applyform/internal/form"
	"github.com/dalemusser/applyform/internal/web"
	"github.com/dalemusser/applyform/metrics"
	"github.com/dalemusser/applyform/middleware"
	"github.com/dalemusser/applyform/pantry/health"
	"github.com/dalemusser/applyform/pantry/version"
	"github.com/dalemusser/applyform/router"
	"go.uber.org/zap"
)

// BuildHandler constructs the HTTP handler for the service.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	httputil.SetJSONLogger(logger)

	ctrl := form.NewController(form.Config{
		Submitter:          deps.Submitter,
		DefaultCountryCode: appCfg.DefaultCountryCode,
		RedirectURL:        appCfg.RedirectURL,
		RedirectDelay:      appCfg.RedirectDelay,
		SuccessToast:       appCfg.SuccessToast,
		ErrorToast:         appCfg.ErrorToast,
		Logger:             logger,
		Observer:           metrics.Form,
	})

	h, err := web.New(web.Config{
		Controller:  ctrl,
		Sessions:    deps.Sessions,
		SubmitLimit: deps.SubmitLimit,
		CORS:        middleware.CORSFromConfig(coreCfg),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	r := router.New(coreCfg, logger)
	health.Mount(r, deps.Checks, logger)
	version.Mount(r)
	r.Handle("/metrics", metrics.Handler())
	h.Mount(r)

	logger.Info("routes mounted",
		zap.String("redirect_url", appCfg.RedirectURL),
		zap.String("default_country_code", appCfg.DefaultCountryCode),
		zap.Bool("cors", coreCfg.CORS.EnableCORS))
	return r, nil
}

// Hooks wires the form service into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         "applyform",
	LoadConfig:   LoadConfig,
	Connect:      Connect,
	BuildHandler: BuildHandler,
	Shutdown:     Shutdown,
}
