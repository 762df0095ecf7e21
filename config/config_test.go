package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationFlexible(t *testing.T) {
	def := 7 * time.Second
	tests := []struct {
		name    string
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"nil uses default", nil, def, false},
		{"empty string uses default", "  ", def, false},
		{"go duration", "2s", 2 * time.Second, false},
		{"compound duration", "1m30s", 90 * time.Second, false},
		{"plain seconds string", "120", 120 * time.Second, false},
		{"fractional seconds string", "2.5", 2500 * time.Millisecond, false},
		{"int seconds", 3, 3 * time.Second, false},
		{"int64 seconds", int64(4), 4 * time.Second, false},
		{"float seconds", 0.5, 500 * time.Millisecond, false},
		{"duration value", 5 * time.Second, 5 * time.Second, false},
		{"garbage", "soon", def, true},
		{"zero", "0s", def, true},
		{"negative", -1, def, true},
		{"bool ignored", true, def, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDurationFlexible(tt.raw, def)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfigValues_Accessors(t *testing.T) {
	vals := AppConfigValues{
		"s":     "hello",
		"i":     int64(3),
		"f":     0.25,
		"b":     true,
		"list":  []string{"a", "b"},
		"delay": "2s",
	}

	assert.Equal(t, "hello", vals.String("s"))
	assert.Equal(t, "", vals.String("missing"))
	assert.Equal(t, 3, vals.Int("i"))
	assert.Equal(t, int64(3), vals.Int64("i"))
	assert.Equal(t, 0.25, vals.Float64("f"))
	assert.True(t, vals.Bool("b"))
	assert.Equal(t, []string{"a", "b"}, vals.StringSlice("list"))
	assert.Equal(t, 2*time.Second, vals.Duration("delay", time.Second))
	assert.Equal(t, time.Second, vals.Duration("missing", time.Second))
}

func TestLoad_DefaultsAndAppKeys(t *testing.T) {
	t.Setenv("APPLYFORM_SCRIPT_URL", "https://script.example/exec")
	t.Setenv("APPLYFORM_SUBMIT_RATE", "0.5")

	keys := []AppKey{
		{Name: "script_url", Default: "", Desc: "endpoint"},
		{Name: "redirect_delay", Default: 2 * time.Second, Desc: "delay"},
		{Name: "submit_rate", Default: 0.2, Desc: "rate"},
		{Name: "submit_burst", Default: 5, Desc: "burst"},
		{Name: "submit_dry_run", Default: false, Desc: "dry run"},
	}

	core, app, err := Load(nil, []string{"--http_port=9090", "--submit_burst=9"}, EnvPrefix, keys)
	require.NoError(t, err)

	assert.Equal(t, "dev", core.Env)
	assert.Equal(t, 9090, core.HTTP.HTTPPort)
	assert.Equal(t, 60*time.Second, core.HTTP.WriteTimeout)
	assert.Equal(t, 15*time.Second, core.HTTP.ShutdownTimeout)
	assert.Equal(t, 5, core.CompressionLevel)

	assert.Equal(t, "https://script.example/exec", app.String("script_url"))
	assert.Equal(t, 2*time.Second, app.Duration("redirect_delay", 0))
	assert.Equal(t, 0.5, app.Float64("submit_rate"))
	assert.Equal(t, 9, app.Int("submit_burst"))
	assert.False(t, app.Bool("submit_dry_run"))
}

func TestLoad_RejectsDuplicateAppKey(t *testing.T) {
	_, _, err := Load(nil, nil, EnvPrefix, []AppKey{{Name: "http_port", Default: 1}})
	assert.ErrorContains(t, err, "conflicts with existing flag")
}

func TestValidateCoreConfig(t *testing.T) {
	base := CoreConfig{
		Env:              "dev",
		HTTP:             HTTPConfig{HTTPPort: 8080, HTTPSPort: 443},
		CompressionLevel: 5,
	}
	require.NoError(t, validateCoreConfig(base))

	tests := []struct {
		name   string
		mutate func(*CoreConfig)
		want   string
	}{
		{"bad env", func(c *CoreConfig) { c.Env = "staging" }, "env must be"},
		{"lets encrypt without https", func(c *CoreConfig) { c.TLS.UseLetsEncrypt = true }, "requires use_https=true"},
		{"manual tls missing files", func(c *CoreConfig) { c.HTTP.UseHTTPS = true }, "APPLYFORM_CERT_FILE"},
		{"port out of range", func(c *CoreConfig) { c.HTTP.HTTPPort = 70000 }, "http_port must be"},
		{"compression level", func(c *CoreConfig) {
			c.EnableCompression = true
			c.CompressionLevel = 11
		}, "compression_level"},
		{"cors wildcard with credentials", func(c *CoreConfig) {
			c.CORS = CORSConfig{
				EnableCORS:           true,
				CORSAllowedOrigins:   []string{"*"},
				CORSAllowedMethods:   []string{"POST"},
				CORSAllowCredentials: true,
			}
		}, `cannot use "*"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorContains(t, validateCoreConfig(cfg), tt.want)
		})
	}
}
