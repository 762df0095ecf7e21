package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/applyform/config"
	"github.com/dalemusser/applyform/httputil"
	"github.com/dalemusser/applyform/internal/submit"
	"github.com/dalemusser/applyform/pantry/health"
	"github.com/dalemusser/applyform/pantry/ratelimit"
	"github.com/dalemusser/applyform/pantry/session"
	"go.uber.org/zap"
)

// Deps holds the backends the form service talks to.
type Deps struct {
	Sessions  *session.Manager
	Submitter submit.Submitter

	// SubmitLimit throttles submissions per client IP.
	SubmitLimit func(http.Handler) http.Handler
	limiter     *ratelimit.KeyLimiter

	// Checks feed /health. The redis store adds a ping.
	Checks map[string]health.Check
}

// Connect opens the session store and builds the submitter.
func Connect(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	deps := Deps{Checks: map[string]health.Check{}}

	var store session.Store
	switch appCfg.SessionStore {
	case StoreRedis:
		rs, err := session.NewRedisStoreWithConfig(ctx, session.RedisStoreConfig{
			Address:  appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err != nil {
			return Deps{}, fmt.Errorf("connect session store: %w", err)
		}
		deps.Checks["redis"] = rs.Ping
		store = rs
		logger.Info("session store: redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	default:
		store = session.NewMemoryStore()
		logger.Info("session store: memory")
	}

	deps.Sessions = session.NewManager(store, session.Config{
		MaxAge: appCfg.SessionMaxAge,
		Secure: coreCfg.HTTP.UseHTTPS,
	})
	deps.Submitter = newSubmitter(appCfg, logger)
	deps.SubmitLimit, deps.limiter = ratelimit.Middleware(ratelimit.Config{
		Rate:  appCfg.SubmitRate,
		Burst: appCfg.SubmitBurst,
		OnLimited: func(w http.ResponseWriter, r *http.Request) {
			httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited", "too many submissions, try again shortly")
		},
	})
	return deps, nil
}

func newSubmitter(appCfg AppConfig, logger *zap.Logger) submit.Submitter {
	if appCfg.SubmitDryRun {
		logger.Warn("submit_dry_run is on: applications are logged, not sent")
		return submit.DryRun{Logger: logger}
	}
	if appCfg.ScriptURL == "" {
		logger.Warn("script_url is empty: every submission will fail")
	}
	return submit.NewScriptSubmitter(submit.Config{
		Endpoint:  appCfg.ScriptURL,
		Timeout:   appCfg.SubmitTimeout,
		UserAgent: appCfg.UserAgent,
		OnAttempt: logAttempt(logger),
	})
}

// logAttempt records transport detail at debug level. The form controller
// logs the outcome of each submission.
func logAttempt(logger *zap.Logger) func(submit.Attempt) {
	return func(a submit.Attempt) {
		fields := []zap.Field{
			zap.String("submission_id", a.ID),
			zap.Duration("duration", a.Duration),
			zap.Int("status", a.StatusCode),
		}
		if a.Err != nil {
			fields = append(fields, zap.Error(a.Err))
		}
		logger.Debug("submission attempt finished", fields...)
	}
}

// Shutdown stops the rate limiter sweeper and closes the session store.
func Shutdown(deps Deps, logger *zap.Logger) {
	if deps.limiter != nil {
		deps.limiter.Close()
	}
	if deps.Sessions == nil {
		return
	}
	if err := deps.Sessions.Close(); err != nil {
		logger.Warn("session store close failed", zap.Error(err))
	}
}
