package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 42, map[string]string{"a": "b"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a":"b"}`, rec.Body.String())
}

func TestBindJSON(t *testing.T) {
	type req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"field":"firstName","value":"Jane"}`, ""},
		{"empty", ``, "request body is empty"},
		{"syntax", `{"field":}`, "malformed JSON"},
		{"truncated", `{"field":`, "invalid JSON in request body"},
		{"unknown", `{"field":"a","extra":1}`, `unknown field "extra"`},
		{"type", `{"field":1}`, `invalid value for field "field"`},
		{"multiple", `{"field":"a"}{"field":"b"}`, "multiple JSON values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got req
			err := BindJSON(r, &got)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Jane", got.Value)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestBindJSON_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"`+strings.Repeat("a", 100)+`"}`))
	r.Body = http.MaxBytesReader(rec, r.Body, 10)

	var v map[string]string
	assert.EqualError(t, BindJSON(r, &v), "request body too large")
}
