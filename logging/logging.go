// logging/logging.go
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is attached to every line the configured logger writes, so
// applyform output can be picked out of a shared log stream.
const Service = "applyform"

// BootstrapLogger logs config loading and other startup steps that run
// before log_level and env are known. It writes to stderr at info.
func BootstrapLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ValidLogLevels are the values accepted for log_level.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// IsValidLogLevel reports whether level is one of ValidLogLevels, ignoring case.
func IsValidLogLevel(level string) bool {
	level = strings.ToLower(level)
	for _, valid := range ValidLogLevels {
		if level == valid {
			return true
		}
	}
	return false
}

// BuildLogger builds the service logger from log_level and env. env "prod"
// writes JSON for the log collector; "dev" writes console lines. Per-request
// and submission logs go through this logger, so visitor data in them must
// already be masked (see Mask).
//
// An unknown level falls back to info with a warning on stderr.
func BuildLogger(level, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": Service}

	if !IsValidLogLevel(level) {
		_, _ = os.Stderr.WriteString("WARNING: invalid log_level \"" + level +
			"\"; valid levels are: " + strings.Join(ValidLogLevels, ", ") + ". Using \"info\".\n")
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, err
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// Mask hides personal data in log output, keeping only the first rune and
// the length so operators can still tell values apart.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	return string(r[0]) + strings.Repeat("*", len(r)-1)
}
