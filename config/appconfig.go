// config/appconfig.go
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey defines a configuration key owned by the application rather than
// the core server. Keys are loaded from config files, environment variables
// and command-line flags with the same precedence as CoreConfig.
type AppKey struct {
	// Name is the key name (e.g., "script_url", "redirect_delay").
	// This is used as-is for config files and CLI flags.
	// For env vars, it's uppercased and prefixed (e.g., APPLYFORM_SCRIPT_URL).
	Name string

	// Default is the default value if not set elsewhere.
	// Supported types: string, int, int64, bool, float64, []string, time.Duration.
	Default any

	// Desc is a short description for --help output.
	Desc string
}

// AppConfigValues holds the loaded app configuration values.
// Keys are the AppKey.Name values, values are the loaded configuration.
type AppConfigValues map[string]any

// String returns a string value or empty string if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// Int returns an int value or 0 if not found/wrong type.
// Handles both int and int64 (TOML/Viper returns int64 for integers).
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Int64 returns an int64 value or 0 if not found/wrong type.
func (a AppConfigValues) Int64(key string) int64 {
	switch v := a[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Float64 returns a float64 value or 0 if not found/wrong type.
func (a AppConfigValues) Float64(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns a []string value or nil if not found/wrong type.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration parses a duration value from the config.
// Accepts:
//   - Duration strings: "2s", "1h30m", "90s"
//   - Numeric values: interpreted as seconds
//   - Plain numeric strings: "600" = 600 seconds
//
// Returns the default value if the key is not found, empty, or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig loads app-specific configuration using the same precedence
// as core config: flags > env > config files > defaults.
//
// The envPrefix is used for environment variables (e.g., "APPLYFORM" means
// the key "script_url" maps to env var "APPLYFORM_SCRIPT_URL").
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) (AppConfigValues, error) {
	if len(keys) == 0 {
		return make(AppConfigValues), nil
	}

	appV := viper.New()
	appV.SetEnvPrefix(envPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		def := key.Default
		if d, ok := def.(time.Duration); ok {
			def = d.String()
		}
		appV.SetDefault(key.Name, def)
		_ = appV.BindEnv(key.Name)

		// Config files are merged into the core viper instance.
		if v.IsSet(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}

		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	// Env and flag values arrive as strings; coerce them to the default's type
	// so the typed accessors work regardless of the source.
	result := make(AppConfigValues, len(keys))
	for _, key := range keys {
		val, err := coerce(appV, key)
		if err != nil {
			return nil, err
		}
		result[key.Name] = val
	}

	if logger != nil {
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			if isSecretKey(key.Name) {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			} else {
				fields = append(fields, zap.Any(key.Name, result[key.Name]))
			}
		}
		logger.Info("app config loaded", fields...)
	}

	return result, nil
}

func coerce(v *viper.Viper, key AppKey) (any, error) {
	switch key.Default.(type) {
	case string:
		return v.GetString(key.Name), nil
	case int:
		return v.GetInt(key.Name), nil
	case int64:
		return v.GetInt64(key.Name), nil
	case bool:
		return v.GetBool(key.Name), nil
	case float64:
		return v.GetFloat64(key.Name), nil
	case time.Duration:
		return v.Get(key.Name), nil
	case []string:
		switch t := v.Get(key.Name).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				return []string{}, nil
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return nil, fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key.Name, s, err)
			}
			return arr, nil
		default:
			return v.GetStringSlice(key.Name), nil
		}
	}
	return nil, fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
}

// isSecretKey reports whether a key's value must not be logged.
func isSecretKey(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "key") ||
		strings.Contains(n, "secret") ||
		strings.Contains(n, "password") ||
		strings.Contains(n, "token")
}

// registerAppFlags registers command-line flags for app config keys.
// Must be called before fs.Parse().
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case float64:
			fs.Float64(key.Name, d, key.Desc)
		case time.Duration:
			fs.String(key.Name, d.String(), key.Desc)
		case []string:
			// For string slices, accept JSON array on command line
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
