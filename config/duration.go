// config/duration.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationFlexible accepts strings like "2s"/"1m30s", numeric seconds
// (ints, floats, or their string forms), or a time.Duration.
// Returns def on empty/unknown types; returns def + error on invalid or
// non-positive values.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			// Allow plain seconds in string form, e.g. "120" or "2.5"
			secs, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return def, fmt.Errorf("cannot parse duration %q", s)
			}
			parsed = secondsToDuration(secs)
		}
		d = parsed
	case int:
		d = time.Duration(t) * time.Second
	case int32:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = secondsToDuration(t)
	default:
		// nil, bool and the like: use the default
		return def, nil
	}
	if d <= 0 {
		return def, fmt.Errorf("duration must be >0, got %v", raw)
	}
	return d, nil
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
