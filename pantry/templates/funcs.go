// templates/funcs.go
package templates

import (
	"encoding/json"
	"errors"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"
)

// Funcs returns helpers available to all templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,

		// {{ runeCount .Value }} counts characters, not bytes.
		"runeCount": utf8.RuneCountInString,

		// {{ .Delay | seconds }} → whole seconds, rounded up, for meta refresh.
		"seconds": func(d time.Duration) int64 {
			return int64((d + time.Second - 1) / time.Second)
		},
		"millis": func(d time.Duration) int64 { return d.Milliseconds() },

		// {{ template "x" (dict "In" .Field "Label" "Name") }} passes several
		// values to a partial.
		"dict": dict,

		// {{ .Data | toJSON }} for data-* attributes.
		"toJSON": func(v any) string {
			b, err := json.Marshal(v)
			if err != nil {
				return "null"
			}
			return string(b)
		},
	}
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, errors.New("dict: keys must be strings")
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}
