// app/app.go
package app

import (
	"context"
	"net/http"

	"github.com/dalemusser/applyform/config"
	"github.com/dalemusser/applyform/logging"
	"github.com/dalemusser/applyform/metrics"
	"github.com/dalemusser/applyform/server"
	"go.uber.org/zap"
)

// Hooks are the integration points a service provides to Run. C is the
// app's own config, D the bundle of backends it connects to.
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Connect opens backends (session store, outbound clients).
	Connect func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// BuildHandler builds the router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Shutdown releases what Connect opened, after the server stops. Optional.
	Shutdown func(deps D, logger *zap.Logger)
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load core + app config
//  3. Build the final logger from core config
//  4. Register default metrics
//  5. Connect backends
//  6. Wire shutdown signals to a context
//  7. Build the HTTP handler
//  8. Serve until shutdown, then release backends
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return err
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return err
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", hooks.Name))

	metrics.RegisterDefault(logger)

	deps, err := hooks.Connect(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return err
	}
	if hooks.Shutdown != nil {
		defer hooks.Shutdown(deps, logger)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return err
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
