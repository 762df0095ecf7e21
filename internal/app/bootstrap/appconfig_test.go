package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/applyform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func defaults() config.AppConfigValues {
	v := config.AppConfigValues{}
	for _, k := range appKeys {
		v[k.Name] = k.Default
	}
	return v
}

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg, err := newAppConfig(defaults())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.ScriptURL)
	assert.Equal(t, "https://t.me/HustlifySalesSchool", cfg.RedirectURL)
	assert.Equal(t, 2*time.Second, cfg.RedirectDelay)
	assert.Equal(t, 3*time.Second, cfg.SuccessToast)
	assert.Equal(t, 5*time.Second, cfg.ErrorToast)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, "+91", cfg.DefaultCountryCode)
	assert.Equal(t, StoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.InDelta(t, 0.2, cfg.SubmitRate, 1e-9)
	assert.Equal(t, 5, cfg.SubmitBurst)
}

func TestNewAppConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"unknown dial code", "default_country_code", "+999", "default_country_code"},
		{"relative redirect", "redirect_url", "/thanks", "redirect_url"},
		{"ftp script url", "script_url", "ftp://example.com/x", "script_url"},
		{"unknown store", "session_store", "disk", "session_store"},
		{"redis without addr", "redis_addr", "", ""},
		{"negative rate", "submit_rate", -1.0, "submit_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaults()
			v[tt.key] = tt.val
			if tt.key == "redis_addr" {
				v["session_store"] = StoreRedis
				tt.want = "redis_addr"
			}
			_, err := newAppConfig(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConnectAndBuildHandler_Memory(t *testing.T) {
	appCfg, err := newAppConfig(defaults())
	require.NoError(t, err)
	appCfg.SubmitDryRun = true

	coreCfg := &config.CoreConfig{Env: "dev", LogLevel: "debug"}
	logger := zap.NewNop()

	deps, err := Connect(context.Background(), coreCfg, appCfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { Shutdown(deps, logger) })
	assert.Empty(t, deps.Checks)

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	require.NoError(t, err)

	for _, path := range []string{"/", "/health", "/version", "/api/countries", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
