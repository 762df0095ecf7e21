package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFormMetrics(t *testing.T) {
	m := NewFormMetrics()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	m.ObserveSubmission("submitted", 120*time.Millisecond)
	m.ObserveSubmission("failed", time.Second)
	m.ObserveValidation([]application.Field{application.Email, application.PhoneNumber})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationErrors.WithLabelValues("email")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.validationErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.submitDuration))
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(reqDuration.WithLabelValues("/things/{id}", "GET", "200").(prometheus.Histogram)))
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 10))
	assert.Equal(t, "", truncateUTF8("abc", 0))
	s := strings.Repeat("é", 3) // 2 bytes each
	assert.Equal(t, "é", truncateUTF8(s, 3))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "200", statusLabel(0))
	assert.Equal(t, "422", statusLabel(http.StatusUnprocessableEntity))
	assert.Equal(t, "500", statusLabel(1000))
}

func TestRouteLabel_FallsBackToTruncatedPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", 400), nil)
	label := routeLabel(req)
	assert.Len(t, label, maxPathLabelLength)
	assert.True(t, strings.HasSuffix(label, "..."))
}
